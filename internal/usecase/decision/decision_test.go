package decision

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	chessdom "chess_mentor/internal/domain/chess"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/rules"
)

type stubBook map[string][]string

func (b stubBook) Lookup(fen string) []string { return b[fen] }

type stubPatterns map[string]*chessdom.PatternRecord

func (p stubPatterns) Get(_ context.Context, key string) (*chessdom.PatternRecord, error) {
	return p[key], nil
}

func newSelector(book stubBook, patterns stubPatterns) *MoveSelector {
	return NewMoveSelector(book, patterns, zap.NewNop().Sugar(), rand.New(rand.NewSource(7)))
}

func sampleCP(cp int, best string) chessdom.AnalysisSample {
	return chessdom.AnalysisSample{Depth: 12, CP: cp, BestMove: best, PV: []string{best}}
}

func TestSelectMoveRequiresBestMove(t *testing.T) {
	s := newSelector(stubBook{}, stubPatterns{})
	_, _, err := s.SelectMove(context.Background(), rules.StartFEN, []string{"e2e4"},
		chessdom.AnalysisSample{Depth: 12, CP: 10}, chessdom.PersonaForTier(chessdom.TierNormal))
	assert.ErrorIs(t, err, errs.ErrNoBestMove)
}

func TestSelectMoveFollowsBookAtFullAdherence(t *testing.T) {
	bookMoves := []string{"e2e4", "d2d4"}
	s := newSelector(stubBook{rules.StartFEN: bookMoves}, stubPatterns{})

	persona := chessdom.PersonaForTier(chessdom.TierNormal)
	persona.BookAdherenceProbability = 1.0

	legal, err := rules.LegalUCIMoves(rules.StartFEN)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN, legal,
			sampleCP(20, "g1f3"), persona)
		require.NoError(t, err)
		assert.Equal(t, "book", rationale)
		assert.Contains(t, bookMoves, uci)
	}
}

func TestSelectMoveIllegalBookMoveFallsThrough(t *testing.T) {
	s := newSelector(stubBook{rules.StartFEN: {"e2e5"}}, stubPatterns{})
	persona := chessdom.PersonaForTier(chessdom.TierNormal)
	persona.BookAdherenceProbability = 1.0

	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		[]string{"e2e4", "d2d4"}, sampleCP(20, "e2e4"), persona)
	require.NoError(t, err)
	assert.Equal(t, "engine", rationale)
	assert.Equal(t, "e2e4", uci)
}

func TestSelectMoveWinningOverride(t *testing.T) {
	s := newSelector(stubBook{}, stubPatterns{})
	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		[]string{"e2e4", "d2d4"}, sampleCP(650, "d2d4"), chessdom.PersonaForTier(chessdom.TierNormal))
	require.NoError(t, err)
	assert.Equal(t, "winning", rationale)
	assert.Equal(t, "d2d4", uci)
}

func TestSelectMovePatternAtMasterIgnoresEval(t *testing.T) {
	key := chessdom.NormalizeFEN(rules.StartFEN)
	patterns := stubPatterns{key: {
		Key:   key,
		Moves: []chessdom.PatternMove{{UCI: "g1f3", Count: 8}, {UCI: "e2e4", Count: 2}},
		Total: 10,
	}}
	s := newSelector(stubBook{}, patterns)

	persona := chessdom.PersonaForTier(chessdom.TierMaster)
	persona.BookAdherenceProbability = 0 // isolate the pattern rule

	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		[]string{"g1f3", "e2e4", "d2d4"}, sampleCP(-300, "d2d4"), persona)
	require.NoError(t, err)
	assert.Equal(t, "pattern", rationale)
	assert.Equal(t, "g1f3", uci)
}

func TestSelectMovePatternBlunderGuardBelowMaster(t *testing.T) {
	key := chessdom.NormalizeFEN(rules.StartFEN)
	patterns := stubPatterns{key: {
		Key:   key,
		Moves: []chessdom.PatternMove{{UCI: "g1f3", Count: 8}},
		Total: 10,
	}}
	s := newSelector(stubBook{}, patterns)

	persona := chessdom.PersonaForTier(chessdom.TierNormal)
	persona.BookAdherenceProbability = 0

	// -300 is beyond the normal tier's tolerance: the pattern is abandoned
	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		[]string{"g1f3", "d2d4"}, sampleCP(-300, "d2d4"), persona)
	require.NoError(t, err)
	assert.Equal(t, "engine", rationale)
	assert.Equal(t, "d2d4", uci)
}

func TestSelectMovePatternPicksTopMove(t *testing.T) {
	key := chessdom.NormalizeFEN(rules.StartFEN)
	patterns := stubPatterns{key: {
		Key:   key,
		Moves: []chessdom.PatternMove{{UCI: "a2a3", Count: 1}, {UCI: "e2e4", Count: 9}},
		Total: 10,
	}}
	s := newSelector(stubBook{}, patterns)

	persona := chessdom.PersonaForTier(chessdom.TierNormal)
	persona.BookAdherenceProbability = 0

	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		[]string{"a2a3", "e2e4", "d2d4"}, sampleCP(0, "d2d4"), persona)
	require.NoError(t, err)
	// e2e4 at 9/10 qualifies and is the top move
	assert.Equal(t, "pattern", rationale)
	assert.Equal(t, "e2e4", uci)
}

func TestSelectMoveEasyDeviation(t *testing.T) {
	s := newSelector(stubBook{}, stubPatterns{})
	persona := chessdom.PersonaForTier(chessdom.TierEasy)
	persona.BookAdherenceProbability = 0
	persona.RandomDeviationProb = 1.0

	legal := []string{"e2e4", "d2d4", "g1f3"}
	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		legal, sampleCP(-20, "e2e4"), persona)
	require.NoError(t, err)
	assert.Equal(t, "deviation", rationale)
	assert.Contains(t, legal, uci)
}

func TestSelectMoveNoDeviationWithSingleLegalMove(t *testing.T) {
	s := newSelector(stubBook{}, stubPatterns{})
	persona := chessdom.PersonaForTier(chessdom.TierEasy)
	persona.BookAdherenceProbability = 0
	persona.RandomDeviationProb = 1.0

	uci, rationale, err := s.SelectMove(context.Background(), rules.StartFEN,
		[]string{"g8h8"}, sampleCP(-20, "g8h8"), persona)
	require.NoError(t, err)
	assert.Equal(t, "engine", rationale)
	assert.Equal(t, "g8h8", uci)
}

// Whatever rule fires, the selected move must come from the legal set.
func TestSelectMoveAlwaysLegal(t *testing.T) {
	legal, err := rules.LegalUCIMoves(rules.StartFEN)
	require.NoError(t, err)

	s := newSelector(stubBook{rules.StartFEN: {"e2e4"}}, stubPatterns{})
	for _, tier := range []chessdom.DifficultyTier{chessdom.TierEasy, chessdom.TierNormal, chessdom.TierMaster} {
		for cp := -400; cp <= 400; cp += 200 {
			uci, _, err := s.SelectMove(context.Background(), rules.StartFEN, legal,
				sampleCP(cp, "b1c3"), chessdom.PersonaForTier(tier))
			require.NoError(t, err)
			assert.Contains(t, legal, uci)
		}
	}
}
