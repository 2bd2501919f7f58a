// Package report renders a finished game into a printable PDF summary: the
// movetext plus the critiques collected during review.
package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	chessdom "chess_mentor/internal/domain/chess"
	gamedom "chess_mentor/internal/domain/game"
	gameuc "chess_mentor/internal/usecase/game"
)

// Annotation is a critique attached to one half-move of the game.
type Annotation struct {
	Ply    int
	Advice chessdom.Advice
}

// WriteGameReport writes the PDF report of a game to w.
func WriteGameReport(w io.Writer, play gamedom.Game, annotations []Annotation) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Courier", "B", 14)
	pdf.Cell(40, 10, fmt.Sprintf("Game %s", play.GameKeyPublic))
	pdf.Ln(10)

	pdf.SetFont("Courier", "", 10)
	pdf.Cell(40, 6, fmt.Sprintf("Player: %s (%s), tier: %s, result: %s",
		play.PlayerID, play.PlayerColor, play.Tier, play.Result))
	pdf.Ln(10)

	pdf.SetFont("Courier", "B", 11)
	pdf.Cell(40, 6, "Moves")
	pdf.Ln(8)
	pdf.SetFont("Courier", "", 10)
	pdf.MultiCell(0, 4.5, gameuc.PGN(play.Moves, play.Result), "", "L", false)
	pdf.Ln(6)

	if len(annotations) > 0 {
		pdf.SetFont("Courier", "B", 11)
		pdf.Cell(40, 6, "Review notes")
		pdf.Ln(8)
		pdf.SetFont("Courier", "", 10)

		for _, a := range annotations {
			if a.Ply < 0 || a.Ply >= len(play.Moves) {
				continue
			}
			move := play.Moves[a.Ply]
			line := fmt.Sprintf("%d. %s: %s", a.Ply/2+1, move.SAN, a.Advice.Text)
			pdf.MultiCell(0, 4.5, line, "", "L", false)
			pdf.Ln(2)
		}
	}

	return pdf.Output(w)
}
