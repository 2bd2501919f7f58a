// Package advice renders human-readable rationales for suggested moves and
// critiques of played ones. Both entry points are pure functions sharing one
// rule table over move metadata; no state, no side effects.
package advice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	chessdom "chess_mentor/internal/domain/chess"
	"chess_mentor/internal/rules"
)

const decisiveMaterialCP = 300

// AdviseMove explains why the engine's suggested best move is good.
// lastMoveUCI is the move that produced fen, empty at the start of the game;
// it distinguishes a recapture from winning an exposed piece.
func AdviseMove(fen string, lastMoveUCI string, sample chessdom.AnalysisSample) (chessdom.Advice, error) {
	m, pos, err := rules.FindLegal(fen, sample.BestMove)
	if err != nil {
		return chessdom.Advice{}, fmt.Errorf("best move %q is not playable in position: %w", sample.BestMove, err)
	}

	adv := chessdom.Advice{
		MoveUCI:     sample.BestMove,
		MoveSAN:     rules.SAN(pos, m),
		BestLineUCI: strings.Join(sample.PV, " "),
	}

	switch {
	case sample.HasMate && sample.MateIn > 0:
		adv.Text = fmt.Sprintf("%s starts a forced mate in %d. Nothing else matters now.", adv.MoveSAN, sample.MateIn)
	case sample.CP >= decisiveMaterialCP:
		adv.Text = fmt.Sprintf("%s wins decisive material. Convert the advantage and simplify.", adv.MoveSAN)
	case isCapture(m):
		if lastMoveLandedOn(lastMoveUCI, m.S2()) {
			adv.Text = fmt.Sprintf("%s recaptures and restores the material balance.", adv.MoveSAN)
		} else {
			adv.Text = fmt.Sprintf("%s picks up an exposed piece on %s.", adv.MoveSAN, m.S2().String())
		}
	case m.HasTag(chess.Check):
		adv.Text = fmt.Sprintf("%s gives check and keeps the initiative.", adv.MoveSAN)
	case m.HasTag(chess.KingSideCastle) || m.HasTag(chess.QueenSideCastle):
		adv.Text = fmt.Sprintf("%s tucks the king away and connects the rooks.", adv.MoveSAN)
	case m.Promo() != chess.NoPieceType:
		adv.Text = fmt.Sprintf("%s promotes. A new queen usually ends the argument.", adv.MoveSAN)
	default:
		adv.Text = positionalText(pos, m, adv.MoveSAN, fen)
	}

	return adv, nil
}

// CritiqueMove compares the move actually played against the engine's best
// move for the same position. An exact origin+destination match earns the
// fixed praise text; otherwise the critique is keyed on the played move's own
// metadata and names the engine's preferred alternative. No centipawn-loss
// grade is computed.
func CritiqueMove(fenBefore string, playedUCI string, sample chessdom.AnalysisSample) (chessdom.Advice, error) {
	m, pos, err := rules.FindLegal(fenBefore, playedUCI)
	if err != nil {
		return chessdom.Advice{}, fmt.Errorf("played move %q does not fit the position: %w", playedUCI, err)
	}

	adv := chessdom.Advice{
		MoveUCI: playedUCI,
		MoveSAN: rules.SAN(pos, m),
	}

	if sameSquares(playedUCI, sample.BestMove) {
		adv.Text = fmt.Sprintf("%s is the precise move. The engine agrees completely.", adv.MoveSAN)
		adv.IsPraise = true
		return adv, nil
	}

	bestSAN := sample.BestMove
	if bm, bpos, err := rules.FindLegal(fenBefore, sample.BestMove); err == nil {
		bestSAN = rules.SAN(bpos, bm)
	}
	adv.BestLineUCI = strings.Join(sample.PV, " ")

	piece := pos.Board().Piece(m.S1()).Type()
	switch {
	case isCapture(m):
		adv.Text = fmt.Sprintf("%s grabs material, but %s was stronger here. Captures are not always the most forcing choice.", adv.MoveSAN, bestSAN)
	case piece == chess.King:
		adv.Text = fmt.Sprintf("%s moves the king; %s kept more options open. King moves in the middlegame often concede tempo.", adv.MoveSAN, bestSAN)
	case piece == chess.Pawn:
		adv.Text = fmt.Sprintf("%s pushes a pawn that cannot come back. %s improved a piece first.", adv.MoveSAN, bestSAN)
	default:
		adv.Text = fmt.Sprintf("%s is playable, but the engine preferred %s in this position.", adv.MoveSAN, bestSAN)
	}
	return adv, nil
}

// StartingPositionAdvice is the static text shown at review cursor -1.
func StartingPositionAdvice() chessdom.Advice {
	return chessdom.Advice{
		Text: "The starting position. Develop the minor pieces, fight for the center and castle early.",
	}
}

func positionalText(pos *chess.Position, m *chess.Move, san string, fen string) string {
	dest := m.S2()
	switch pos.Board().Piece(m.S1()).Type() {
	case chess.Pawn:
		if centerSquare(dest) {
			return fmt.Sprintf("%s stakes a claim in the center.", san)
		}
		return fmt.Sprintf("%s gains space and frees the pieces behind it.", san)
	case chess.Knight:
		if dest == chess.C3 || dest == chess.F3 || dest == chess.C6 || dest == chess.F6 {
			return fmt.Sprintf("%s develops the knight to its natural square.", san)
		}
		if extendedCenter(dest) {
			return fmt.Sprintf("%s centralizes the knight. A knight on the rim is dim.", san)
		}
		return fmt.Sprintf("%s reroutes the knight toward better squares.", san)
	case chess.Bishop:
		return fmt.Sprintf("%s puts the bishop on an active diagonal.", san)
	case chess.Rook:
		return fmt.Sprintf("%s brings the rook to a more active file.", san)
	case chess.Queen:
		return fmt.Sprintf("%s activates the queen while staying out of harm's way.", san)
	case chess.King:
		if fullmoveNumber(fen) <= 15 {
			return fmt.Sprintf("%s improves king safety before committing elsewhere.", san)
		}
		return fmt.Sprintf("%s activates the king. In the endgame the king is a fighting piece.", san)
	}
	return fmt.Sprintf("%s is a useful waiting move that improves the position quietly.", san)
}

func isCapture(m *chess.Move) bool {
	return m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant)
}

// lastMoveLandedOn reports whether the previous move's destination equals sq,
// i.e. the current capture is a recapture.
func lastMoveLandedOn(lastUCI string, sq chess.Square) bool {
	if len(lastUCI) < 4 {
		return false
	}
	return lastUCI[2:4] == sq.String()
}

func sameSquares(a, b string) bool {
	return len(a) >= 4 && len(b) >= 4 && a[:4] == b[:4]
}

func centerSquare(sq chess.Square) bool {
	return sq == chess.D4 || sq == chess.E4 || sq == chess.D5 || sq == chess.E5
}

func extendedCenter(sq chess.Square) bool {
	f, r := sq.File(), sq.Rank()
	return f >= chess.FileC && f <= chess.FileF && r >= chess.Rank3 && r <= chess.Rank6
}

func fullmoveNumber(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil {
		return 1
	}
	return n
}
