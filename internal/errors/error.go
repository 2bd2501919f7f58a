package errors

import "errors"

var (
	ErrUserNotFound    = errors.New("user with provided username was not found")
	ErrWrongPassword   = errors.New("wrong password")
	ErrSessionNotFound = errors.New("session was not found")
	ErrUserExists      = errors.New("user already exists")

	ErrCreateGameFailed = errors.New("create game failed")
	ErrGameNotFound     = errors.New("game not found")
	ErrGameFinished     = errors.New("game is already finished")
	ErrIllegalMove      = errors.New("illegal move")
	ErrNotYourTurn      = errors.New("not your turn")

	ErrEngineNotReady = errors.New("engine not ready")
	ErrNoBestMove     = errors.New("analysis sample has no best move")
	ErrNoAnalysis     = errors.New("no analysis arrived in time")

	ErrInternal = errors.New("internal error")
)
