package game

import (
	"time"

	"github.com/gorilla/websocket"

	chessdom "chess_mentor/internal/domain/chess"
)

type Game struct {
	GameKeySecret string                  `json:"game_key_secret,omitempty" bson:"game_key_secret"`
	GameKeyPublic string                  `json:"game_key_public" bson:"game_key_public"`
	PlayerID      string                  `json:"player_id" bson:"player_id"`
	PlayerColor   string                  `json:"player_color" bson:"player_color"` // "white" or "black"
	Tier          chessdom.DifficultyTier `json:"tier" bson:"tier"`
	Status        string                  `json:"status" bson:"status"`
	Result        string                  `json:"result,omitempty" bson:"result,omitempty"`
	Moves         []MoveRecord            `json:"moves,omitempty" bson:"moves,omitempty"`
	CreatedAt     time.Time               `json:"created_at" bson:"created_at"`
	FinishedAt    *time.Time              `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
	PlayerWS      *websocket.Conn         `json:"-" bson:"-"`
}

type CreateGameRequest struct {
	Tier  chessdom.DifficultyTier `json:"tier"`
	Color string                  `json:"color"`
}

type GameCreateResponse struct {
	GameKeyPublic string `json:"game_key_public"`
	GameKeySecret string `json:"game_key_secret"`
}

type GameFindRequest struct {
	GameKeyPublic string `json:"game_key_public"`
}

// GameStateResponse is pushed over the live websocket after every exchange.
type GameStateResponse struct {
	PlayerMove   *MoveRecord      `json:"player_move,omitempty"`
	BotMove      *MoveRecord      `json:"bot_move,omitempty"`
	BotRationale string           `json:"bot_rationale,omitempty"`
	Advice       *chessdom.Advice `json:"advice,omitempty"`
	FEN          string           `json:"fen"`
	Status       string           `json:"status"`
	Result       string           `json:"result,omitempty"`
}
