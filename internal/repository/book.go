package repository

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed book.json
var bookData []byte

// OpeningBook is the fixed table of known opening positions to preferred
// moves, keyed by the exact FEN, counters included; a position reached via
// an unusual move order carries different counters and simply misses.
type OpeningBook struct {
	positions map[string][]string
}

func NewOpeningBook() (*OpeningBook, error) {
	var positions map[string][]string
	if err := json.Unmarshal(bookData, &positions); err != nil {
		return nil, fmt.Errorf("failed to load embedded opening book: %w", err)
	}
	return &OpeningBook{positions: positions}, nil
}

// Lookup returns the book moves for the exact position, nil when absent.
func (b *OpeningBook) Lookup(fen string) []string {
	return b.positions[fen]
}

func (b *OpeningBook) Size() int {
	return len(b.positions)
}
