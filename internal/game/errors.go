// internal/game/errors.go
package game

import "errors"

// Sentinel errors returned by the room and turn operations. The gateway turns
// these into error notices for the requesting connection only.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotDescriber     = errors.New("only the current describer can do that")
	ErrNotEnoughPlayers = errors.New("at least 2 players are needed")
	ErrAlreadyInRoom    = errors.New("connection is already in a room")
)
