// Package decision turns one engine analysis sample into the single move the
// automated opponent actually plays, honoring its persona and difficulty.
package decision

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	chessdom "chess_mentor/internal/domain/chess"
	errs "chess_mentor/internal/errors"
)

// Thresholds of the selection cascade.
const (
	// winningOverrideCP suspends style deference once the side to move is
	// clearly winning: a strong player converts, they don't improvise.
	winningOverrideCP = 100

	patternMinShare = 0.3
	patternMinCount = 2
)

type Book interface {
	Lookup(fen string) []string
}

type PatternStore interface {
	Get(ctx context.Context, normalizedFEN string) (*chessdom.PatternRecord, error)
}

type MoveSelector struct {
	book     Book
	patterns PatternStore
	log      *zap.SugaredLogger
	rng      *rand.Rand
}

// NewMoveSelector builds the selector. rng is injected so the cascade is
// deterministic given its random source.
func NewMoveSelector(book Book, patterns PatternStore, log *zap.SugaredLogger, rng *rand.Rand) *MoveSelector {
	return &MoveSelector{
		book:     book,
		patterns: patterns,
		log:      log,
		rng:      rng,
	}
}

// SelectMove picks the move to play in fen given the legal move set, the
// freshest analysis sample and a persona. The rules run as a strict cascade:
// opening book, learned pattern, winning-position override, easy-tier random
// deviation, engine best move. A book or pattern move that is no longer legal
// (stale table vs. unusual move order) falls through instead of surfacing.
//
// The sample must carry a best move; calling without one is a precondition
// violation and returns ErrNoBestMove.
func (s *MoveSelector) SelectMove(
	ctx context.Context,
	fen string,
	legal []string,
	sample chessdom.AnalysisSample,
	persona chessdom.PersonaProfile,
) (uci string, rationale string, err error) {
	if sample.BestMove == "" {
		return "", "", errs.ErrNoBestMove
	}

	// 1. Opening book, probability-gated by persona adherence.
	if entry := s.book.Lookup(fen); len(entry) > 0 && s.rng.Float64() < persona.BookAdherenceProbability {
		candidate := entry[s.rng.Intn(len(entry))]
		if contains(legal, candidate) {
			return candidate, "book", nil
		}
		s.log.Debugf("book move %s is not legal in %q, falling through", candidate, fen)
	}

	// 2. Learned pattern: imitate the most frequent historical choice when
	// the statistics are trustworthy. Below master tier the pattern is not
	// followed blindly into a position already lost beyond tolerance.
	if move, ok := s.patternMove(ctx, fen, sample, persona); ok {
		if contains(legal, move) {
			return move, "pattern", nil
		}
		s.log.Debugf("pattern move %s is not legal in %q, falling through", move, fen)
	}

	// 3. Winning-position override.
	if sample.CP > winningOverrideCP {
		return sample.BestMove, "winning", nil
	}

	// 4. Easy-tier random deviation, skipped when there is no real choice.
	if persona.Tier == chessdom.TierEasy && len(legal) > 1 && s.rng.Float64() < persona.RandomDeviationProb {
		return legal[s.rng.Intn(len(legal))], "deviation", nil
	}

	// 5. Fallback: the engine's raw best move.
	return sample.BestMove, "engine", nil
}

func (s *MoveSelector) patternMove(ctx context.Context, fen string, sample chessdom.AnalysisSample, persona chessdom.PersonaProfile) (string, bool) {
	record, err := s.patterns.Get(ctx, chessdom.NormalizeFEN(fen))
	if err != nil {
		s.log.Warnf("pattern lookup failed: %v", err)
		return "", false
	}
	if record == nil || record.Total <= 0 {
		return "", false
	}

	top, ok := record.TopMove()
	if !ok {
		return "", false
	}

	share := float64(top.Count) / float64(record.Total)
	if share <= patternMinShare && top.Count <= patternMinCount {
		return "", false
	}

	if persona.Tier != chessdom.TierMaster && sample.CP < -persona.BlunderToleranceCP {
		return "", false
	}
	return top.UCI, true
}

func contains(moves []string, uci string) bool {
	for _, m := range moves {
		if m == uci {
			return true
		}
	}
	return false
}
