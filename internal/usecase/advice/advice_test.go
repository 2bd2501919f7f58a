package advice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chessdom "chess_mentor/internal/domain/chess"
	"chess_mentor/internal/rules"
)

func TestAdviseMoveMate(t *testing.T) {
	// scholar's mate one move away: Qxf7#
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 4 4"
	sample := chessdom.AnalysisSample{
		Depth: 10, HasMate: true, MateIn: 1,
		CP: chessdom.EvalForMate(1), BestMove: "f3f7", PV: []string{"f3f7"},
	}

	adv, err := AdviseMove(fen, "b8c6", sample)
	require.NoError(t, err)
	assert.Contains(t, adv.Text, "forced mate in 1")
	assert.Equal(t, "f3f7", adv.MoveUCI)
	assert.Equal(t, "Qxf7#", adv.MoveSAN)
}

func TestAdviseMoveRecapture(t *testing.T) {
	// 1. e4 d5 2. exd5 and black recaptures with the queen
	fen, _, err := rules.Apply(rules.StartFEN, "e2e4")
	require.NoError(t, err)
	fen, _, err = rules.Apply(fen, "d7d5")
	require.NoError(t, err)
	fen, _, err = rules.Apply(fen, "e4d5")
	require.NoError(t, err)

	sample := chessdom.AnalysisSample{Depth: 8, CP: 30, BestMove: "d8d5", PV: []string{"d8d5"}}
	adv, err := AdviseMove(fen, "e4d5", sample)
	require.NoError(t, err)
	assert.Contains(t, adv.Text, "recaptures")
}

func TestAdviseMoveDevelopment(t *testing.T) {
	sample := chessdom.AnalysisSample{Depth: 8, CP: 25, BestMove: "g1f3", PV: []string{"g1f3", "d7d5"}}
	adv, err := AdviseMove(rules.StartFEN, "", sample)
	require.NoError(t, err)
	assert.Equal(t, "Nf3", adv.MoveSAN)
	assert.Contains(t, adv.Text, "natural square")
	assert.Equal(t, "g1f3 d7d5", adv.BestLineUCI)
}

func TestAdviseMoveRejectsUnplayableBest(t *testing.T) {
	sample := chessdom.AnalysisSample{Depth: 8, CP: 0, BestMove: "e2e5"}
	_, err := AdviseMove(rules.StartFEN, "", sample)
	assert.Error(t, err)
}

func TestCritiqueMovePraisesExactMatch(t *testing.T) {
	sample := chessdom.AnalysisSample{Depth: 12, CP: 30, BestMove: "e2e4", PV: []string{"e2e4", "e7e5"}}
	adv, err := CritiqueMove(rules.StartFEN, "e2e4", sample)
	require.NoError(t, err)
	assert.True(t, adv.IsPraise)
	assert.Contains(t, adv.Text, "precise move")
	assert.Empty(t, adv.BestLineUCI)
}

func TestCritiqueMoveNamesAlternative(t *testing.T) {
	sample := chessdom.AnalysisSample{Depth: 12, CP: 30, BestMove: "e2e4", PV: []string{"e2e4", "e7e5"}}
	adv, err := CritiqueMove(rules.StartFEN, "a2a3", sample)
	require.NoError(t, err)
	assert.False(t, adv.IsPraise)
	assert.Contains(t, adv.Text, "e4", "the critique must name the preferred move")
	assert.Equal(t, "a3", adv.MoveSAN)
}

func TestCritiqueMoveCaptureText(t *testing.T) {
	fen, _, err := rules.Apply(rules.StartFEN, "e2e4")
	require.NoError(t, err)
	fen, _, err = rules.Apply(fen, "d7d5")
	require.NoError(t, err)

	// white can take on d5 but suppose the engine wanted e4e5
	sample := chessdom.AnalysisSample{Depth: 12, CP: 10, BestMove: "e4e5", PV: []string{"e4e5"}}
	adv, err := CritiqueMove(fen, "e4d5", sample)
	require.NoError(t, err)
	assert.Contains(t, adv.Text, "grabs material")
	assert.Contains(t, adv.Text, "e5")
}

func TestCritiqueMoveRejectsIllegalPlayed(t *testing.T) {
	sample := chessdom.AnalysisSample{Depth: 12, CP: 0, BestMove: "e2e4"}
	_, err := CritiqueMove(rules.StartFEN, "e2e5", sample)
	assert.Error(t, err)
}

func TestStartingPositionAdvice(t *testing.T) {
	adv := StartingPositionAdvice()
	assert.NotEmpty(t, adv.Text)
	assert.Empty(t, adv.MoveUCI)
}
