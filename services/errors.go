package services

import "errors"

// Sentinel errors for the game session lifecycle. Handlers map these to
// HTTP statuses with errors.Is; services wrap them with context where
// useful.
var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrNotOwner        = errors.New("not the session owner")
	ErrNameTaken       = errors.New("player name already taken")
	ErrNoPlayers       = errors.New("cannot start with no players")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrSessionClosed   = errors.New("game session is finished")
	ErrAlreadyAnswered = errors.New("answer already submitted")
	ErrAnswerExpired   = errors.New("answer submitted after deadline")
	ErrWrongQuestion   = errors.New("answer is not for the current question")
	ErrInvalidOption   = errors.New("selected option index out of range")
	ErrGameNotActive   = errors.New("game is not active")
	ErrGameNotWaiting  = errors.New("game is not accepting players")
	ErrPinExhausted    = errors.New("no free game pin available")
)
