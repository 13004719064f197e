package apperror

import "errors"

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is already full")
	ErrRoomClosed         = errors.New("room is closed")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrGameOver           = errors.New("game is already over")
	ErrInvalidMove        = errors.New("invalid move")
	ErrOpponentNotPresent = errors.New("opponent has not joined yet")
)
