package repository

import (
	"regexp"
	"strconv"
	"strings"

	chessdom "chess_mentor/internal/domain/chess"
)

// Patterns for the engine's info lines. Anything that does not match is
// protocol noise and gets dropped rather than propagated.
var (
	reDepth     = regexp.MustCompile(`\bdepth (\d+)\b`)
	reScoreCP   = regexp.MustCompile(`\bscore cp (-?\d+)\b`)
	reScoreMate = regexp.MustCompile(`\bscore mate (-?\d+)\b`)
	reMultiPV   = regexp.MustCompile(`\bmultipv (\d+)\b`)
	rePV        = regexp.MustCompile(`\bpv ((?:[a-h][1-8][a-h][1-8][qrbn]? ?)+)$`)
)

// parseInfoLine turns one engine output line into an AnalysisSample. A line
// qualifies when it carries both a depth marker and a score (centipawns or
// mate distance). Mate scores are folded into the centipawn field as a
// large-magnitude sentinel while the raw distance is kept alongside.
func parseInfoLine(line string) (chessdom.AnalysisSample, bool) {
	var sample chessdom.AnalysisSample

	if !strings.HasPrefix(line, "info") {
		return sample, false
	}
	// Secondary multipv lines would corrupt the best-move stream.
	if m := reMultiPV.FindStringSubmatch(line); m != nil && m[1] != "1" {
		return sample, false
	}

	m := reDepth.FindStringSubmatch(line)
	if m == nil {
		return sample, false
	}
	depth, err := strconv.Atoi(m[1])
	if err != nil {
		return sample, false
	}
	sample.Depth = depth

	if m := reScoreCP.FindStringSubmatch(line); m != nil {
		cp, err := strconv.Atoi(m[1])
		if err != nil {
			return chessdom.AnalysisSample{}, false
		}
		sample.CP = cp
	} else if m := reScoreMate.FindStringSubmatch(line); m != nil {
		mate, err := strconv.Atoi(m[1])
		if err != nil {
			return chessdom.AnalysisSample{}, false
		}
		sample.MateIn = mate
		sample.HasMate = true
		sample.CP = chessdom.EvalForMate(mate)
	} else {
		return chessdom.AnalysisSample{}, false
	}

	if m := rePV.FindStringSubmatch(line); m != nil {
		sample.PV = strings.Fields(m[1])
		if len(sample.PV) > 0 {
			sample.BestMove = sample.PV[0]
		}
	}

	return sample, true
}
