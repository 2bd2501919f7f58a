package learn

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	chessdom "chess_mentor/internal/domain/chess"
	gamedom "chess_mentor/internal/domain/game"
	"chess_mentor/internal/rules"
)

type memPatterns struct {
	counts map[string]map[string]int
}

func newMemPatterns() *memPatterns {
	return &memPatterns{counts: make(map[string]map[string]int)}
}

func (m *memPatterns) Increment(_ context.Context, key string, uci string) error {
	if m.counts[key] == nil {
		m.counts[key] = make(map[string]int)
	}
	m.counts[key][uci]++
	return nil
}

func playedMoves(t *testing.T, ucis ...string) []gamedom.MoveRecord {
	t.Helper()
	fen := rules.StartFEN
	var out []gamedom.MoveRecord
	for _, uci := range ucis {
		after, san, err := rules.Apply(fen, uci)
		require.NoError(t, err)
		out = append(out, gamedom.MoveRecord{UCI: uci, SAN: san, FENBefore: fen, FENAfter: after})
		fen = after
	}
	return out
}

func TestLearnGameCountsEveryPly(t *testing.T) {
	patterns := newMemPatterns()
	l := NewLearner(patterns, zap.NewNop().Sugar())

	moves := playedMoves(t, "e2e4", "e7e5", "g1f3")
	require.NoError(t, l.LearnGame(context.Background(), moves))

	startKey := chessdom.NormalizeFEN(rules.StartFEN)
	assert.Equal(t, 1, patterns.counts[startKey]["e2e4"])
	assert.Len(t, patterns.counts, 3)
}

func TestLearnGameAccumulatesAcrossGames(t *testing.T) {
	patterns := newMemPatterns()
	l := NewLearner(patterns, zap.NewNop().Sugar())

	require.NoError(t, l.LearnGame(context.Background(), playedMoves(t, "e2e4")))
	require.NoError(t, l.LearnGame(context.Background(), playedMoves(t, "e2e4")))
	require.NoError(t, l.LearnGame(context.Background(), playedMoves(t, "d2d4")))

	startKey := chessdom.NormalizeFEN(rules.StartFEN)
	assert.Equal(t, 2, patterns.counts[startKey]["e2e4"])
	assert.Equal(t, 1, patterns.counts[startKey]["d2d4"])
}

func TestImportArchiveDir(t *testing.T) {
	dir := t.TempDir()

	good := archiveGame{Moves: playedMoves(t, "e2e4", "c7c5")}
	raw, err := json.Marshal(good)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game1.json"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	patterns := newMemPatterns()
	l := NewLearner(patterns, zap.NewNop().Sugar())

	imported, err := l.ImportArchiveDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	startKey := chessdom.NormalizeFEN(rules.StartFEN)
	assert.Equal(t, 1, patterns.counts[startKey]["e2e4"])
}

func TestImportArchiveDirMissing(t *testing.T) {
	l := NewLearner(newMemPatterns(), zap.NewNop().Sugar())
	_, err := l.ImportArchiveDir(context.Background(), "/does/not/exist")
	assert.Error(t, err)
}
