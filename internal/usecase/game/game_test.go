package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chess_mentor/internal/bootstrap"
	chessdom "chess_mentor/internal/domain/chess"
	gamedom "chess_mentor/internal/domain/game"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/rules"
	"chess_mentor/internal/statuses"
)

type memStore struct {
	seq       int
	games     map[string]gamedom.Game
	moves     map[string][]gamedom.MoveRecord
	completed map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		games:     make(map[string]gamedom.Game),
		moves:     make(map[string][]gamedom.MoveRecord),
		completed: make(map[string]string),
	}
}

func (s *memStore) GenerateGameKeys(context.Context) (string, string) {
	s.seq++
	return fmt.Sprintf("secret-%d", s.seq), fmt.Sprintf("%05d", s.seq)
}

func (s *memStore) PutGame(_ context.Context, g gamedom.Game) bool {
	s.games[g.GameKeySecret] = g
	return true
}

func (s *memStore) GetGameBySecretKey(_ context.Context, key string) (gamedom.Game, error) {
	g, ok := s.games[key]
	if !ok {
		return gamedom.Game{}, errs.ErrGameNotFound
	}
	return g, nil
}

func (s *memStore) GetGameByPublicKey(_ context.Context, key string) (gamedom.Game, error) {
	for _, g := range s.games {
		if g.GameKeyPublic == key {
			return g, nil
		}
	}
	return gamedom.Game{}, errs.ErrGameNotFound
}

func (s *memStore) SaveMoves(_ context.Context, key string, moves []gamedom.MoveRecord) error {
	s.moves[key] = moves
	return nil
}

func (s *memStore) LoadMoves(_ context.Context, key string) ([]gamedom.MoveRecord, error) {
	return s.moves[key], nil
}

func (s *memStore) CompleteGame(_ context.Context, key string, result string, moves []gamedom.MoveRecord) error {
	g, ok := s.games[key]
	if !ok {
		return errs.ErrGameNotFound
	}
	g.Status = statuses.StatusCompleted
	g.Result = result
	g.Moves = moves
	s.games[key] = g
	s.completed[key] = result
	return nil
}

func (s *memStore) GetArchiveGamesByPlayer(_ context.Context, playerID string) ([]gamedom.Game, error) {
	var out []gamedom.Game
	for _, g := range s.games {
		if g.PlayerID == playerID && g.Status == statuses.StatusCompleted {
			out = append(out, g)
		}
	}
	return out, nil
}

// instantAnalyzer answers every evaluation synchronously with a fixed verdict
// at the requested depth, best move taken from the legal moves of the position.
type instantAnalyzer struct {
	ready bool
	cp    int
	fixed string // forced best move, first legal move when empty
}

func (a *instantAnalyzer) Ready() bool { return a.ready }

func (a *instantAnalyzer) Evaluate(fen string, depth int, onSample chessdom.SampleFunc) error {
	best := a.fixed
	if best == "" {
		legal, err := rules.LegalUCIMoves(fen)
		if err != nil || len(legal) == 0 {
			return errs.ErrNoAnalysis
		}
		best = legal[0]
	}
	onSample(chessdom.AnalysisSample{Depth: depth, CP: a.cp, BestMove: best, PV: []string{best}})
	return nil
}

func (a *instantAnalyzer) Stop() {}

type engineBestSelector struct{}

func (engineBestSelector) SelectMove(_ context.Context, _ string, _ []string, sample chessdom.AnalysisSample, _ chessdom.PersonaProfile) (string, string, error) {
	if sample.BestMove == "" {
		return "", "", errs.ErrNoBestMove
	}
	return sample.BestMove, "engine", nil
}

type recordedResult struct {
	userID string
	color  string
	result string
}

type fakeRecorder struct{ results []recordedResult }

func (r *fakeRecorder) RecordResult(_ context.Context, userID, color, result string) error {
	r.results = append(r.results, recordedResult{userID, color, result})
	return nil
}

type fakeLearner struct{ games [][]gamedom.MoveRecord }

func (l *fakeLearner) LearnGame(_ context.Context, moves []gamedom.MoveRecord) error {
	l.games = append(l.games, moves)
	return nil
}

type fixture struct {
	uc       *GameUsecaseHandler
	store    *memStore
	analyzer *instantAnalyzer
	recorder *fakeRecorder
	learner  *fakeLearner
}

func newFixture() *fixture {
	store := newMemStore()
	analyzer := &instantAnalyzer{ready: true}
	recorder := &fakeRecorder{}
	learner := &fakeLearner{}
	cfg := bootstrap.Config{EngineDefaultDepth: 8}
	uc := NewGameUsecaseHandler(cfg, zap.NewNop().Sugar(), store, analyzer, engineBestSelector{}, recorder, learner)
	return &fixture{uc: uc, store: store, analyzer: analyzer, recorder: recorder, learner: learner}
}

func TestCreateGame(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Tier: chessdom.TierEasy, Color: "black"})
	require.NoError(t, err)
	assert.Equal(t, statuses.StatusActive, g.Status)
	assert.Equal(t, "black", g.PlayerColor)
	assert.Equal(t, chessdom.TierEasy, g.Tier)
	assert.NotEmpty(t, g.GameKeySecret)

	stored, err := f.uc.GetGameBySecretKey(context.Background(), g.GameKeySecret)
	require.NoError(t, err)
	assert.Equal(t, g.GameKeyPublic, stored.GameKeyPublic)
}

func TestCreateGameDefaults(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Tier: "impossible", Color: "purple"})
	require.NoError(t, err)
	assert.Equal(t, "white", g.PlayerColor)
	assert.Equal(t, chessdom.TierNormal, g.Tier)
}

func TestApplyUserMove(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	rec, over, result, err := f.uc.ApplyUserMove(context.Background(), g, "e2e4")
	require.NoError(t, err)
	assert.False(t, over)
	assert.Empty(t, result)
	assert.Equal(t, "e4", rec.SAN)
	assert.Equal(t, rules.StartFEN, rec.FENBefore)

	moves, err := f.store.LoadMoves(context.Background(), g.GameKeySecret)
	require.NoError(t, err)
	require.Len(t, moves, 1)
}

func TestApplyUserMoveRejectsIllegal(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	_, _, _, err = f.uc.ApplyUserMove(context.Background(), g, "e2e5")
	assert.ErrorIs(t, err, errs.ErrIllegalMove)
}

func TestApplyUserMoveRejectsOutOfTurn(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "black"})
	require.NoError(t, err)

	// white has not moved yet, black cannot act
	_, _, _, err = f.uc.ApplyUserMove(context.Background(), g, "e7e5")
	assert.ErrorIs(t, err, errs.ErrNotYourTurn)
}

func TestApplyUserMoveDetectsMate(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	// drive both sides through the store to reach fool's mate
	seed := []string{"f2f3", "e7e5", "g2g4"}
	fen := rules.StartFEN
	var moves []gamedom.MoveRecord
	for _, uci := range seed {
		after, san, aerr := rules.Apply(fen, uci)
		require.NoError(t, aerr)
		moves = append(moves, gamedom.MoveRecord{UCI: uci, SAN: san, FENBefore: fen, FENAfter: after})
		fen = after
	}
	require.NoError(t, f.store.SaveMoves(context.Background(), g.GameKeySecret, moves))
	g.PlayerColor = "black"

	_, over, result, err := f.uc.ApplyUserMove(context.Background(), g, "d8h4")
	require.NoError(t, err)
	assert.True(t, over)
	assert.Equal(t, statuses.ResultBlackWins, result)
}

func TestBotMove(t *testing.T) {
	f := newFixture()
	f.analyzer.fixed = "e7e5"
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	_, _, _, err = f.uc.ApplyUserMove(context.Background(), g, "e2e4")
	require.NoError(t, err)

	rec, rationale, over, _, err := f.uc.BotMove(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "e7e5", rec.UCI)
	assert.Equal(t, "engine", rationale)
	assert.False(t, over)

	moves, err := f.store.LoadMoves(context.Background(), g.GameKeySecret)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, moves[0].FENAfter, moves[1].FENBefore)
}

func TestBotMoveRespectsTurnOrder(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	// white (the player) is to move, the bot must refuse
	_, _, _, _, err = f.uc.BotMove(context.Background(), g)
	assert.ErrorIs(t, err, errs.ErrNotYourTurn)
}

func TestBotMoveWithoutEngine(t *testing.T) {
	f := newFixture()
	f.analyzer.ready = false
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "black"})
	require.NoError(t, err)

	_, _, _, _, err = f.uc.BotMove(context.Background(), g)
	assert.ErrorIs(t, err, errs.ErrEngineNotReady)
}

func TestHint(t *testing.T) {
	f := newFixture()
	f.analyzer.fixed = "e2e4"
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	adv, err := f.uc.Hint(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", adv.MoveUCI)
	assert.NotEmpty(t, adv.Text)
}

// sequenceAnalyzer replays a canned stream of samples, engine-style: depths
// may repeat or arrive out of order.
type sequenceAnalyzer struct {
	samples []chessdom.AnalysisSample
}

func (a *sequenceAnalyzer) Ready() bool { return true }

func (a *sequenceAnalyzer) Evaluate(_ string, _ int, onSample chessdom.SampleFunc) error {
	for _, s := range a.samples {
		onSample(s)
	}
	return nil
}

func (a *sequenceAnalyzer) Stop() {}

func TestHintToleratesOutOfOrderSamples(t *testing.T) {
	f := newFixture()
	f.uc.analyzer = &sequenceAnalyzer{samples: []chessdom.AnalysisSample{
		{Depth: 5, CP: 30, BestMove: "d2d4", PV: []string{"d2d4"}},
		{Depth: 3, CP: -10, BestMove: "a2a3", PV: []string{"a2a3"}},
		{Depth: 8, CP: 25, BestMove: "e2e4", PV: []string{"e2e4"}},
	}}
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	adv, err := f.uc.Hint(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", adv.MoveUCI)
}

func TestHintDuplicateDepthLastWriteWins(t *testing.T) {
	f := newFixture()
	// target depth is never reached, so the deadline fallback picks the
	// deepest sample seen, the later one on a depth tie
	f.uc.analysisTimeout = 50 * time.Millisecond
	f.uc.analyzer = &sequenceAnalyzer{samples: []chessdom.AnalysisSample{
		{Depth: 5, CP: 30, BestMove: "d2d4", PV: []string{"d2d4"}},
		{Depth: 3, CP: -10, BestMove: "a2a3", PV: []string{"a2a3"}},
		{Depth: 5, CP: 35, BestMove: "g1f3", PV: []string{"g1f3"}},
	}}
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	adv, err := f.uc.Hint(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "g1f3", adv.MoveUCI)
}

func TestFinish(t *testing.T) {
	f := newFixture()
	g, err := f.uc.CreateGame(context.Background(), "u1", gamedom.CreateGameRequest{Color: "white"})
	require.NoError(t, err)

	_, _, _, err = f.uc.ApplyUserMove(context.Background(), g, "e2e4")
	require.NoError(t, err)

	require.NoError(t, f.uc.Finish(context.Background(), g, statuses.ResultWhiteWins))

	assert.Equal(t, statuses.ResultWhiteWins, f.store.completed[g.GameKeySecret])
	require.Len(t, f.recorder.results, 1)
	assert.Equal(t, recordedResult{"u1", "white", statuses.ResultWhiteWins}, f.recorder.results[0])
	require.Len(t, f.learner.games, 1)
	assert.Len(t, f.learner.games[0], 1)
}

func TestPGN(t *testing.T) {
	fen := rules.StartFEN
	var moves []gamedom.MoveRecord
	for _, uci := range []string{"e2e4", "e7e5", "g1f3"} {
		after, san, err := rules.Apply(fen, uci)
		require.NoError(t, err)
		moves = append(moves, gamedom.MoveRecord{UCI: uci, SAN: san, FENBefore: fen, FENAfter: after})
		fen = after
	}

	assert.Equal(t, "1. e4 e5 2. Nf3 1-0", PGN(moves, "1-0"))
	assert.Equal(t, "*", PGN(nil, ""))
}
