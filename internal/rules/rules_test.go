package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "chess_mentor/internal/errors"
)

func TestApply(t *testing.T) {
	after, san, err := Apply(StartFEN, "e2e4")
	require.NoError(t, err)
	assert.Equal(t, "e4", san)
	assert.Contains(t, after, "4P3")
	assert.Contains(t, after, " b ")
}

func TestApplyIllegalMove(t *testing.T) {
	_, _, err := Apply(StartFEN, "e2e5")
	assert.ErrorIs(t, err, errs.ErrIllegalMove)

	_, _, err = Apply(StartFEN, "e7e5")
	assert.ErrorIs(t, err, errs.ErrIllegalMove)
}

func TestLegalUCIMovesStartPosition(t *testing.T) {
	moves, err := LegalUCIMoves(StartFEN)
	require.NoError(t, err)
	assert.Len(t, moves, 20)
	assert.Contains(t, moves, "e2e4")
	assert.Contains(t, moves, "g1f3")
}

func TestFindLegal(t *testing.T) {
	m, pos, err := FindLegal(StartFEN, "g1f3")
	require.NoError(t, err)
	assert.Equal(t, "Nf3", SAN(pos, m))

	_, _, err = FindLegal(StartFEN, "e2e5")
	assert.ErrorIs(t, err, errs.ErrIllegalMove)
}

func TestFENAfterIsPureReplay(t *testing.T) {
	line := []string{"e2e4", "e7e5", "g1f3", "b8c6"}

	start, err := FENAfter(line, -1)
	require.NoError(t, err)
	assert.Equal(t, StartFEN, start)

	mid1, err := FENAfter(line, 1)
	require.NoError(t, err)
	mid2, err := FENAfter(line, 1)
	require.NoError(t, err)
	assert.Equal(t, mid1, mid2)

	full, err := FENAfter(line, len(line)-1)
	require.NoError(t, err)
	assert.NotEqual(t, mid1, full)
}

func TestFENAfterBrokenHistory(t *testing.T) {
	_, err := FENAfter([]string{"e2e4", "e2e4"}, 1)
	assert.Error(t, err)
}

func TestOutcomeCheckmate(t *testing.T) {
	// fool's mate
	fen := StartFEN
	var err error
	for _, uci := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		fen, _, err = Apply(fen, uci)
		require.NoError(t, err)
	}

	over, result, err := Outcome(fen)
	require.NoError(t, err)
	assert.True(t, over)
	assert.Equal(t, "0-1", result)
}

func TestOutcomeStalemate(t *testing.T) {
	over, result, err := Outcome("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.True(t, over)
	assert.Equal(t, "1/2-1/2", result)
}

func TestOutcomeOngoing(t *testing.T) {
	over, result, err := Outcome(StartFEN)
	require.NoError(t, err)
	assert.False(t, over)
	assert.Empty(t, result)
}

func TestSideToMove(t *testing.T) {
	side, err := SideToMove(StartFEN)
	require.NoError(t, err)
	assert.Equal(t, "white", side)

	after, _, err := Apply(StartFEN, "d2d4")
	require.NoError(t, err)
	side, err = SideToMove(after)
	require.NoError(t, err)
	assert.Equal(t, "black", side)
}
