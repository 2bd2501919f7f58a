// Package game holds the live-play logic: validating player moves, producing
// bot replies through analysis and move selection, and finalizing games.
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chess_mentor/internal/bootstrap"
	chessdom "chess_mentor/internal/domain/chess"
	gamedom "chess_mentor/internal/domain/game"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/rules"
	"chess_mentor/internal/statuses"
	"chess_mentor/internal/usecase/advice"
)

const defaultAnalysisTimeout = 15 * time.Second

type GameStore interface {
	GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string)
	PutGame(ctx context.Context, gameData gamedom.Game) bool
	GetGameBySecretKey(ctx context.Context, gameKeySecret string) (gamedom.Game, error)
	GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (gamedom.Game, error)
	SaveMoves(ctx context.Context, gameKeySecret string, moves []gamedom.MoveRecord) error
	LoadMoves(ctx context.Context, gameKeySecret string) ([]gamedom.MoveRecord, error)
	CompleteGame(ctx context.Context, gameKeySecret string, result string, moves []gamedom.MoveRecord) error
	GetArchiveGamesByPlayer(ctx context.Context, playerID string) ([]gamedom.Game, error)
}

type Analyzer interface {
	Ready() bool
	Evaluate(fen string, depth int, onSample chessdom.SampleFunc) error
	Stop()
}

type Selector interface {
	SelectMove(ctx context.Context, fen string, legal []string, sample chessdom.AnalysisSample, persona chessdom.PersonaProfile) (uci string, rationale string, err error)
}

type ResultRecorder interface {
	RecordResult(ctx context.Context, userID string, playerColor string, result string) error
}

type Learner interface {
	LearnGame(ctx context.Context, moves []gamedom.MoveRecord) error
}

type GameUsecaseHandler struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	store    GameStore
	analyzer Analyzer
	selector Selector
	recorder ResultRecorder
	learner  Learner

	analysisTimeout time.Duration
}

func NewGameUsecaseHandler(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	store GameStore,
	analyzer Analyzer,
	selector Selector,
	recorder ResultRecorder,
	learner Learner,
) *GameUsecaseHandler {
	return &GameUsecaseHandler{
		cfg:      cfg,
		log:      log,
		store:    store,
		analyzer: analyzer,
		selector: selector,
		recorder: recorder,
		learner:  learner,

		analysisTimeout: defaultAnalysisTimeout,
	}
}

func (g *GameUsecaseHandler) CreateGame(ctx context.Context, userID string, req gamedom.CreateGameRequest) (gamedom.Game, error) {
	color := req.Color
	if color != "white" && color != "black" {
		color = "white"
	}
	tier := req.Tier
	switch tier {
	case chessdom.TierEasy, chessdom.TierNormal, chessdom.TierMaster:
	default:
		tier = chessdom.TierNormal
	}

	secret, public := g.store.GenerateGameKeys(ctx)
	newGame := gamedom.Game{
		GameKeySecret: secret,
		GameKeyPublic: public,
		PlayerID:      userID,
		PlayerColor:   color,
		Tier:          tier,
		Status:        statuses.StatusActive,
		CreatedAt:     time.Now(),
	}
	if !g.store.PutGame(ctx, newGame) {
		return gamedom.Game{}, errs.ErrCreateGameFailed
	}
	return newGame, nil
}

func (g *GameUsecaseHandler) GetGameBySecretKey(ctx context.Context, secret string) (gamedom.Game, error) {
	return g.store.GetGameBySecretKey(ctx, secret)
}

func (g *GameUsecaseHandler) GetGameByPublicKey(ctx context.Context, public string) (gamedom.Game, error) {
	return g.store.GetGameByPublicKey(ctx, public)
}

func (g *GameUsecaseHandler) GetArchiveGamesByPlayer(ctx context.Context, playerID string) ([]gamedom.Game, error) {
	return g.store.GetArchiveGamesByPlayer(ctx, playerID)
}

// CurrentFEN returns the position the next move must be made in.
func CurrentFEN(moves []gamedom.MoveRecord) string {
	if len(moves) == 0 {
		return rules.StartFEN
	}
	return moves[len(moves)-1].FENAfter
}

// ApplyUserMove validates the player's move against the live position,
// appends it and reports whether the game ended with it.
func (g *GameUsecaseHandler) ApplyUserMove(ctx context.Context, play gamedom.Game, uci string) (rec gamedom.MoveRecord, over bool, result string, err error) {
	if play.Status != statuses.StatusActive {
		return gamedom.MoveRecord{}, false, "", errs.ErrGameFinished
	}

	moves, err := g.store.LoadMoves(ctx, play.GameKeySecret)
	if err != nil {
		return gamedom.MoveRecord{}, false, "", err
	}
	fen := CurrentFEN(moves)

	side, err := rules.SideToMove(fen)
	if err != nil {
		return gamedom.MoveRecord{}, false, "", err
	}
	if side != play.PlayerColor {
		return gamedom.MoveRecord{}, false, "", errs.ErrNotYourTurn
	}

	after, san, err := rules.Apply(fen, uci)
	if err != nil {
		return gamedom.MoveRecord{}, false, "", err
	}

	rec = gamedom.MoveRecord{UCI: uci, SAN: san, FENBefore: fen, FENAfter: after}
	moves = append(moves, rec)
	if err := g.store.SaveMoves(ctx, play.GameKeySecret, moves); err != nil {
		return gamedom.MoveRecord{}, false, "", err
	}

	over, result, err = rules.Outcome(after)
	if err != nil {
		return rec, false, "", err
	}
	return rec, over, result, nil
}

// BotMove analyzes the live position at the persona's depth and plays the
// selected reply.
func (g *GameUsecaseHandler) BotMove(ctx context.Context, play gamedom.Game) (rec gamedom.MoveRecord, rationale string, over bool, result string, err error) {
	if play.Status != statuses.StatusActive {
		return gamedom.MoveRecord{}, "", false, "", errs.ErrGameFinished
	}

	moves, err := g.store.LoadMoves(ctx, play.GameKeySecret)
	if err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}
	fen := CurrentFEN(moves)

	side, err := rules.SideToMove(fen)
	if err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}
	if side == play.PlayerColor {
		return gamedom.MoveRecord{}, "", false, "", errs.ErrNotYourTurn
	}

	legal, err := rules.LegalUCIMoves(fen)
	if err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}
	if len(legal) == 0 {
		return gamedom.MoveRecord{}, "", false, "", errs.ErrGameFinished
	}

	persona := chessdom.PersonaForTier(play.Tier)
	sample, err := g.awaitAnalysis(ctx, fen, persona.SearchDepth)
	if err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}

	uci, rationale, err := g.selector.SelectMove(ctx, fen, legal, sample, persona)
	if err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}

	after, san, err := rules.Apply(fen, uci)
	if err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}

	rec = gamedom.MoveRecord{UCI: uci, SAN: san, FENBefore: fen, FENAfter: after}
	moves = append(moves, rec)
	if err := g.store.SaveMoves(ctx, play.GameKeySecret, moves); err != nil {
		return gamedom.MoveRecord{}, "", false, "", err
	}

	over, result, err = rules.Outcome(after)
	if err != nil {
		return rec, rationale, false, "", err
	}
	return rec, rationale, over, result, nil
}

// Hint analyzes the live position for the player and wraps the engine's
// preference into human-readable advice.
func (g *GameUsecaseHandler) Hint(ctx context.Context, play gamedom.Game) (chessdom.Advice, error) {
	moves, err := g.store.LoadMoves(ctx, play.GameKeySecret)
	if err != nil {
		return chessdom.Advice{}, err
	}
	fen := CurrentFEN(moves)

	sample, err := g.awaitAnalysis(ctx, fen, g.cfg.EngineDefaultDepth)
	if err != nil {
		return chessdom.Advice{}, err
	}

	lastUCI := ""
	if len(moves) > 0 {
		lastUCI = moves[len(moves)-1].UCI
	}
	return advice.AdviseMove(fen, lastUCI, sample)
}

// Finish archives the game, updates the player's statistic and feeds the
// finished game into the pattern store.
func (g *GameUsecaseHandler) Finish(ctx context.Context, play gamedom.Game, result string) error {
	moves, err := g.store.LoadMoves(ctx, play.GameKeySecret)
	if err != nil {
		return err
	}
	if err := g.store.CompleteGame(ctx, play.GameKeySecret, result, moves); err != nil {
		return err
	}

	if play.PlayerID != "" {
		if err := g.recorder.RecordResult(ctx, play.PlayerID, play.PlayerColor, result); err != nil {
			g.log.Warnf("failed to record result for player %s: %v", play.PlayerID, err)
		}
	}
	if err := g.learner.LearnGame(ctx, moves); err != nil {
		g.log.Warnf("failed to learn from game %s: %v", play.GameKeyPublic, err)
	}
	return nil
}

// awaitAnalysis runs an evaluation and blocks until a sample of at least the
// requested depth arrives. The engine streams shallower samples first; each
// one is kept as a fallback so a slow search still yields its deepest view
// when the timeout fires.
func (g *GameUsecaseHandler) awaitAnalysis(ctx context.Context, fen string, depth int) (chessdom.AnalysisSample, error) {
	if !g.analyzer.Ready() {
		return chessdom.AnalysisSample{}, errs.ErrEngineNotReady
	}

	samples := make(chan chessdom.AnalysisSample, 32)
	err := g.analyzer.Evaluate(fen, depth, func(sample chessdom.AnalysisSample) {
		select {
		case samples <- sample:
		default:
		}
	})
	if err != nil {
		return chessdom.AnalysisSample{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.analysisTimeout)
	defer cancel()

	var best chessdom.AnalysisSample
	for {
		select {
		case sample := <-samples:
			if sample.Depth >= best.Depth && sample.BestMove != "" {
				best = sample
			}
			if best.Depth >= depth {
				return best, nil
			}
		case <-ctx.Done():
			g.analyzer.Stop()
			if best.BestMove != "" {
				return best, nil
			}
			return chessdom.AnalysisSample{}, errs.ErrNoAnalysis
		}
	}
}

// PGN renders the finished game's movetext with a result marker, suitable
// for export and for the printed report.
func PGN(moves []gamedom.MoveRecord, result string) string {
	var sb strings.Builder
	for i, m := range moves {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		}
		sb.WriteString(m.SAN)
		sb.WriteString(" ")
	}
	if result == "" {
		result = statuses.ResultUnknown
	}
	sb.WriteString(result)
	return sb.String()
}
