// internal/handlers/messages.go
package handlers

import (
	"errors"

	"github.com/jason-s-yu/taboo/internal/game"
)

// Inbound message types.
const (
	ActionCreateRoom  = "create_room"
	ActionJoinRoom    = "join_room"
	ActionStartGame   = "start_game"
	ActionSubmitGuess = "submit_guess"
	ActionSkip        = "skip"
	ActionCorrect     = "correct"
	ActionPing        = "ping"
)

// inbound is the envelope of every client to server frame. Fields a given
// type does not use are ignored.
type inbound struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

// errorText turns an engine error into the notice shown to the player.
func errorText(action string, err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Room not found."
	case errors.Is(err, game.ErrNotHost):
		return "Only the host can start."
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "At least 2 players are needed."
	case errors.Is(err, game.ErrNotDescriber):
		if action == ActionCorrect {
			return "Only the describer can confirm."
		}
		return "Only the describer can skip."
	case errors.Is(err, game.ErrAlreadyInRoom):
		return "You are already in a room."
	default:
		return "Something went wrong."
	}
}

func errorMessage(text string) game.Message {
	return game.Message{Type: game.MsgError, Message: text}
}
