package game

import "errors"

// Game state errors. The error text doubles as the wire error code, so
// these strings are part of the protocol.
var (
	ErrNotJoined      = errors.New("not_joined")
	ErrAlreadyJoined  = errors.New("already_joined")
	ErrGameNotFound   = errors.New("game_not_found")
	ErrPlayerNotFound = errors.New("player_not_found")
	ErrInvalidMark    = errors.New("invalid_mark")
	ErrInvalidBingo   = errors.New("invalid_bingo")
)
