package user

import (
	"time"

	chessdom "chess_mentor/internal/domain/chess"
)

type User struct {
	ID            string                  `json:"id" bson:"_id,omitempty"`
	Username      string                  `json:"username" bson:"username"`
	Email         string                  `json:"email" bson:"email"`
	CreatedAt     time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at" bson:"updated_at"`
	PreferredTier chessdom.DifficultyTier `json:"preferred_tier,omitempty" bson:"preferred_tier,omitempty"`
	Statistic     UserStatistic           `json:"statistic" bson:"statistic"`
	PasswordHash  string                  `json:"-" bson:"password_hash"`
	PasswordSalt  string                  `json:"-" bson:"password_salt"`
}

type UserStatistic struct {
	Wins   int `json:"wins" bson:"wins"`
	Losses int `json:"losses" bson:"losses"`
	Draws  int `json:"draws" bson:"draws"`
}
