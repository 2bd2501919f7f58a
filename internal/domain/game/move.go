package game

// MoveRecord is one finalized half-move of a game. FENBefore is the position
// the move was made in; FENAfter the resulting position. Both carry full FEN
// including counters so any historical position can be reconstructed exactly.
type MoveRecord struct {
	UCI       string `json:"uci" bson:"uci"`
	SAN       string `json:"san" bson:"san"`
	FENBefore string `json:"fen_before" bson:"fen_before"`
	FENAfter  string `json:"fen_after" bson:"fen_after"`
}

type MoveRequest struct {
	UCI string `json:"uci"`
}
