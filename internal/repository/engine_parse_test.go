package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chessdom "chess_mentor/internal/domain/chess"
)

func TestParseInfoLineCentipawns(t *testing.T) {
	sample, ok := parseInfoLine("info depth 14 seldepth 22 multipv 1 score cp -37 nodes 812345 nps 950000 time 855 pv e7e5 g1f3 b8c6")
	require.True(t, ok)
	assert.Equal(t, 14, sample.Depth)
	assert.Equal(t, -37, sample.CP)
	assert.False(t, sample.HasMate)
	assert.Equal(t, "e7e5", sample.BestMove)
	assert.Equal(t, []string{"e7e5", "g1f3", "b8c6"}, sample.PV)
}

func TestParseInfoLineMate(t *testing.T) {
	sample, ok := parseInfoLine("info depth 20 score mate 3 pv d1h5 g6h5 f3f7")
	require.True(t, ok)
	assert.True(t, sample.HasMate)
	assert.Equal(t, 3, sample.MateIn)
	assert.Equal(t, chessdom.MateValue-3, sample.CP)

	sample, ok = parseInfoLine("info depth 18 score mate -2 pv h7h6")
	require.True(t, ok)
	assert.Equal(t, -2, sample.MateIn)
	assert.Equal(t, -(chessdom.MateValue - 2), sample.CP)
}

func TestParseInfoLinePromotion(t *testing.T) {
	sample, ok := parseInfoLine("info depth 9 score cp 520 pv e7e8q d8e8")
	require.True(t, ok)
	assert.Equal(t, "e7e8q", sample.BestMove)
}

func TestParseInfoLineRejects(t *testing.T) {
	cases := map[string]string{
		"non-info":       "bestmove e2e4 ponder e7e5",
		"no depth":       "info score cp 12 pv e2e4",
		"no score":       "info depth 5 nodes 120 pv e2e4",
		"secondary pv":   "info depth 10 multipv 2 score cp -5 pv d2d4",
		"currmove noise": "info depth 11 currmove b1c3 currmovenumber 4",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := parseInfoLine(line)
			assert.False(t, ok)
		})
	}
}

func TestParseInfoLineNoPV(t *testing.T) {
	sample, ok := parseInfoLine("info depth 6 score cp 44 nodes 100")
	require.True(t, ok)
	assert.Empty(t, sample.BestMove)
}
