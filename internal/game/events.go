// internal/game/events.go
package game

import "github.com/jason-s-yu/taboo/internal/cards"

// MessageType names an outbound event on the wire.
type MessageType string

const (
	MsgWelcome     MessageType = "welcome"      // requester only, carries the connection id
	MsgRoomCreated MessageType = "room_created" // requester only
	MsgRoomJoined  MessageType = "room_joined"  // requester only
	MsgError       MessageType = "error"        // requester only
	MsgRoomState   MessageType = "room_state"   // whole room
	MsgCard        MessageType = "card"         // current describer only
	MsgCardHidden  MessageType = "card_hidden"  // room minus describer, or whole room
	MsgToast       MessageType = "toast"        // whole room
	MsgPong        MessageType = "pong"
)

// Message is the envelope for every server to client event.
type Message struct {
	Type    MessageType  `json:"type"`
	ID      string       `json:"id,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	State   *PublicState `json:"state,omitempty"`
	Card    *cards.Card  `json:"card,omitempty"`
}

// Notifier delivers messages to connections. It also tracks which
// connections belong to which room, since a broadcast must reach everyone who
// joined in the same critical section.
//
// Implementations must not block and must not call back into the Engine.
type Notifier interface {
	// Attach binds a connection to a room's audience.
	Attach(connID, code string)
	// Detach removes a connection from whatever room it was bound to.
	Detach(connID string)
	// DropRoom detaches every connection bound to code.
	DropRoom(code string)

	// ToRoom sends to every connection in the room.
	ToRoom(code string, msg Message)
	// ToRoomExcept sends to the room minus one connection.
	ToRoomExcept(code, exceptID string, msg Message)
	// ToPlayer sends to a single connection.
	ToPlayer(id string, msg Message)
}

func stateMessage(s PublicState) Message {
	return Message{Type: MsgRoomState, State: &s}
}

func noticeMessage(t MessageType, text string) Message {
	return Message{Type: t, Message: text}
}
