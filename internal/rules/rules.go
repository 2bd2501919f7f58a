// Package rules wraps the external move-legality engine (notnil/chess) behind
// the few operations the rest of the backend needs: legal move listing, move
// application, SAN text and position replay. Board state crosses the package
// boundary as FEN strings only.
package rules

import (
	"fmt"

	"github.com/notnil/chess"

	errs "chess_mentor/internal/errors"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var uciCodec chess.UCINotation

func PositionFromFEN(fen string) (*chess.Position, error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, fmt.Errorf("bad FEN %q: %w", fen, err)
	}
	return pos, nil
}

// LegalMoves returns the legal moves of the position along with the decoded
// position itself, so callers can inspect move metadata without re-parsing.
func LegalMoves(fen string) ([]*chess.Move, *chess.Position, error) {
	pos, err := PositionFromFEN(fen)
	if err != nil {
		return nil, nil, err
	}
	return pos.ValidMoves(), pos, nil
}

// LegalUCIMoves returns the legal moves in UCI notation.
func LegalUCIMoves(fen string) ([]string, error) {
	moves, pos, err := LegalMoves(fen)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, uciCodec.Encode(pos, m))
	}
	return out, nil
}

// FindLegal resolves a UCI move string against the position's legal move set.
// Returns ErrIllegalMove if the move is not legal there.
func FindLegal(fen string, uci string) (*chess.Move, *chess.Position, error) {
	moves, pos, err := LegalMoves(fen)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range moves {
		if uciCodec.Encode(pos, m) == uci {
			return m, pos, nil
		}
	}
	return nil, nil, errs.ErrIllegalMove
}

func SAN(pos *chess.Position, m *chess.Move) string {
	return chess.AlgebraicNotation{}.Encode(pos, m)
}

// Apply plays a UCI move on a FEN position and returns the resulting FEN plus
// the move's SAN text. Every mutation goes through clone-then-validate: an
// illegal move leaves nothing changed.
func Apply(fen string, uci string) (afterFEN string, san string, err error) {
	m, pos, err := FindLegal(fen, uci)
	if err != nil {
		return "", "", err
	}
	san = SAN(pos, m)
	next := pos.Update(m)
	return next.String(), san, nil
}

// FENAfter replays uciMoves[0..upto] from the standard starting position.
// upto == -1 yields the starting position itself.
func FENAfter(uciMoves []string, upto int) (string, error) {
	fen := StartFEN
	for i := 0; i <= upto && i < len(uciMoves); i++ {
		next, _, err := Apply(fen, uciMoves[i])
		if err != nil {
			return "", fmt.Errorf("replay failed at ply %d (%s): %w", i, uciMoves[i], err)
		}
		fen = next
	}
	return fen, nil
}

// Outcome inspects a position for a finished game. result uses PGN result
// strings, empty when the game is still going.
func Outcome(fen string) (over bool, result string, err error) {
	pos, err := PositionFromFEN(fen)
	if err != nil {
		return false, "", err
	}
	switch pos.Status() {
	case chess.Checkmate:
		if pos.Turn() == chess.White {
			return true, "0-1", nil
		}
		return true, "1-0", nil
	case chess.Stalemate:
		return true, "1/2-1/2", nil
	}
	return false, "", nil
}

// SideToMove reports "white" or "black" for a FEN position.
func SideToMove(fen string) (string, error) {
	pos, err := PositionFromFEN(fen)
	if err != nil {
		return "", err
	}
	if pos.Turn() == chess.White {
		return "white", nil
	}
	return "black", nil
}
