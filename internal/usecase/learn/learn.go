// Package learn feeds finished games into the pattern store so the bot can
// imitate moves it has seen before.
package learn

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	chessdom "chess_mentor/internal/domain/chess"
	gamedom "chess_mentor/internal/domain/game"
)

type PatternStore interface {
	Increment(ctx context.Context, normalizedFEN string, uciMove string) error
}

type Learner struct {
	patterns PatternStore
	log      *zap.SugaredLogger
}

func NewLearner(patterns PatternStore, log *zap.SugaredLogger) *Learner {
	return &Learner{patterns: patterns, log: log}
}

// LearnGame records every half-move of a finished game against the position
// it was made in. Positions are normalized before storage so transpositions
// that differ only in move counters share one record.
func (l *Learner) LearnGame(ctx context.Context, moves []gamedom.MoveRecord) error {
	for i, m := range moves {
		key := chessdom.NormalizeFEN(m.FENBefore)
		if err := l.patterns.Increment(ctx, key, m.UCI); err != nil {
			return fmt.Errorf("learning stopped at ply %d: %w", i, err)
		}
	}
	return nil
}

// archiveGame is the on-disk shape of an exported game record.
type archiveGame struct {
	Moves []gamedom.MoveRecord `json:"moves"`
}

// ImportArchiveDir walks a directory of exported game JSON files and learns
// from each. A broken file is skipped with a warning; the import keeps going.
func (l *Learner) ImportArchiveDir(ctx context.Context, dir string) (imported int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			l.log.Warnf("failed to read archive file %s: %v", path, err)
			continue
		}

		var rec archiveGame
		if err := json.Unmarshal(raw, &rec); err != nil {
			l.log.Warnf("failed to parse archive file %s: %v", path, err)
			continue
		}
		if len(rec.Moves) == 0 {
			continue
		}

		if err := l.LearnGame(ctx, rec.Moves); err != nil {
			l.log.Warnf("failed to learn from archive file %s: %v", path, err)
			continue
		}
		imported++
	}

	l.log.Infof("archive import finished, %d games learned from %s", imported, dir)
	return imported, nil
}
