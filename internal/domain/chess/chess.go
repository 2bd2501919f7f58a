package chess

import "strings"

// MateValue is the centipawn sentinel magnitude used when an engine reports a
// forced mate instead of a score. A mate in N maps to ±(MateValue - N) so that
// shorter mates compare as better while remaining an ordinary integer for any
// caller treating the evaluation as a single scalar.
const MateValue = 30000

// AnalysisSample is one incremental result of an engine search. Samples for
// the same request supersede each other, last-write-wins; depth usually grows
// monotonically but out-of-order and duplicate depths must be tolerated.
type AnalysisSample struct {
	Depth    int      `json:"depth"`
	CP       int      `json:"cp"`      // centipawns from the side to move's view
	MateIn   int      `json:"mate_in"` // 0 when no forced mate was reported
	HasMate  bool     `json:"has_mate"`
	PV       []string `json:"pv"` // principal variation, UCI notation
	BestMove string   `json:"best_move"`
}

// SampleFunc receives incremental analysis samples for the evaluation that
// registered it. Later samples for the same request supersede earlier ones.
type SampleFunc func(AnalysisSample)

// EvalForMate converts a raw mate distance to the centipawn sentinel.
func EvalForMate(mateIn int) int {
	if mateIn < 0 {
		return -(MateValue + mateIn) // mateIn is negative: we get mated
	}
	return MateValue - mateIn
}

type DifficultyTier string

const (
	TierEasy   DifficultyTier = "easy"
	TierNormal DifficultyTier = "normal"
	TierMaster DifficultyTier = "master"
)

// PersonaProfile tunes how the automated opponent imitates its target style.
type PersonaProfile struct {
	Tier                     DifficultyTier `json:"tier"`
	SearchDepth              int            `json:"search_depth"`
	BookAdherenceProbability float64        `json:"book_adherence_probability"`
	BlunderToleranceCP       int            `json:"blunder_tolerance_cp"`
	RandomDeviationProb      float64        `json:"random_deviation_prob"`
}

// PersonaForTier returns the fixed profile for a difficulty tier. Unknown
// tiers fall back to normal.
func PersonaForTier(tier DifficultyTier) PersonaProfile {
	switch tier {
	case TierEasy:
		return PersonaProfile{
			Tier:                     TierEasy,
			SearchDepth:              6,
			BookAdherenceProbability: 0.5,
			BlunderToleranceCP:       150,
			RandomDeviationProb:      0.25,
		}
	case TierMaster:
		return PersonaProfile{
			Tier:                     TierMaster,
			SearchDepth:              18,
			BookAdherenceProbability: 0.95,
			BlunderToleranceCP:       50,
			RandomDeviationProb:      0,
		}
	default:
		return PersonaProfile{
			Tier:                     TierNormal,
			SearchDepth:              12,
			BookAdherenceProbability: 0.8,
			BlunderToleranceCP:       100,
			RandomDeviationProb:      0,
		}
	}
}

// PatternMove is one historically-observed move with its occurrence count.
// The slice order in PatternRecord preserves encounter order, which is the
// tie-break when two moves share the top frequency.
type PatternMove struct {
	UCI   string `json:"uci"`
	Count int    `json:"count"`
}

// PatternRecord holds accumulated move-frequency statistics for one
// normalized position. Total always equals the sum of the move counts.
type PatternRecord struct {
	Key   string        `json:"key"`
	Moves []PatternMove `json:"moves"`
	Total int           `json:"total"`
}

// TopMove returns the most frequent move, first-encountered wins ties.
func (r *PatternRecord) TopMove() (PatternMove, bool) {
	var best PatternMove
	found := false
	for _, m := range r.Moves {
		if !found || m.Count > best.Count {
			best = m
			found = true
		}
	}
	return best, found
}

// Advice is a human-readable rationale for a suggested or played move.
type Advice struct {
	MoveUCI     string `json:"move_uci,omitempty"`
	MoveSAN     string `json:"move_san,omitempty"`
	Text        string `json:"text"`
	BestLineUCI string `json:"best_line_uci,omitempty"`
	IsPraise    bool   `json:"is_praise,omitempty"`
}

// NormalizeFEN strips the halfmove and fullmove counters from a FEN string,
// producing the pattern-matching key. Positions that differ only in the
// counters generate the same moves.
func NormalizeFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fen
	}
	return strings.Join(fields[:4], " ")
}
