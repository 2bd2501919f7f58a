package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	chessdom "chess_mentor/internal/domain/chess"
)

const patternKeyPrefix = "pattern:"

// PatternStorage is the accessor over the learned move-frequency store. The
// decision engine only reads; Increment is used by the learning pipeline.
// Records are JSON under "pattern:<normalized FEN>" with an ordered move list
// so encounter-order tie-breaks survive the round trip.
type PatternStorage struct {
	redis *redis.Client
	log   *zap.SugaredLogger
}

func NewPatternStorage(redis *redis.Client, log *zap.SugaredLogger) *PatternStorage {
	return &PatternStorage{redis: redis, log: log}
}

// Get returns the pattern record for a normalized position key, nil when the
// position has never been observed.
func (p *PatternStorage) Get(ctx context.Context, normalizedFEN string) (*chessdom.PatternRecord, error) {
	val, err := p.redis.Get(ctx, patternKeyPrefix+normalizedFEN).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pattern get: %w", err)
	}

	var record chessdom.PatternRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("pattern record for %q is corrupt: %w", normalizedFEN, err)
	}
	return &record, nil
}

// Increment bumps the frequency of a move in a position, creating the record
// on first observation. Total stays the sum of the per-move counts.
func (p *PatternStorage) Increment(ctx context.Context, normalizedFEN string, uciMove string) error {
	record, err := p.Get(ctx, normalizedFEN)
	if err != nil {
		return err
	}
	if record == nil {
		record = &chessdom.PatternRecord{Key: normalizedFEN}
	}

	found := false
	for i := range record.Moves {
		if record.Moves[i].UCI == uciMove {
			record.Moves[i].Count++
			found = true
			break
		}
	}
	if !found {
		record.Moves = append(record.Moves, chessdom.PatternMove{UCI: uciMove, Count: 1})
	}
	record.Total++

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := p.redis.Set(ctx, patternKeyPrefix+normalizedFEN, raw, 0).Err(); err != nil {
		return fmt.Errorf("pattern set: %w", err)
	}
	return nil
}
