// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/taboo/internal/game"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// outBuffer is how many messages may queue for a slow client before new ones
// are dropped.
const outBuffer = 32

// Connection is one websocket client. OutChan is drained by the write pump
// and never closed; the pump stops on context cancellation instead.
type Connection struct {
	ID      string
	OutChan chan game.Message

	limiter *rate.Limiter
}

// NewConnection allocates a connection whose inbound messages are limited to
// perSec with the given burst.
func NewConnection(id string, perSec float64, burst int) *Connection {
	return &Connection{
		ID:      id,
		OutChan: make(chan game.Message, outBuffer),
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// Allow reports whether another inbound message fits in the rate budget.
func (c *Connection) Allow() bool {
	return c.limiter.Allow()
}

// Hub tracks live connections and which room each one belongs to. It is the
// engine's Notifier: every send is a non-blocking channel push.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	// rooms maps a room code to its bound connection ids.
	rooms map[string]map[string]struct{}
	// bound maps a connection id to its room code.
	bound map[string]string

	log logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		conns: make(map[string]*Connection),
		rooms: make(map[string]map[string]struct{}),
		bound: make(map[string]string),
		log:   logger,
	}
}

// Register makes a connection addressable by its id.
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// Unregister forgets a connection and any room binding it still has.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(connID)
	delete(h.conns, connID)
}

// RoomOf returns the room code a connection is bound to.
func (h *Hub) RoomOf(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	code, ok := h.bound[connID]
	return code, ok
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Attach(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(connID)
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[code] = members
	}
	members[connID] = struct{}{}
	h.bound[connID] = code
}

func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(connID)
}

func (h *Hub) detachLocked(connID string) {
	code, ok := h.bound[connID]
	if !ok {
		return
	}
	delete(h.bound, connID)
	if members, ok := h.rooms[code]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

func (h *Hub) DropRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.rooms[code] {
		delete(h.bound, id)
	}
	delete(h.rooms, code)
}

func (h *Hub) ToRoom(code string, msg game.Message) {
	h.ToRoomExcept(code, "", msg)
}

func (h *Hub) ToRoomExcept(code, exceptID string, msg game.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.rooms[code] {
		if id == exceptID {
			continue
		}
		h.sendLocked(id, msg)
	}
}

func (h *Hub) ToPlayer(id string, msg game.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendLocked(id, msg)
}

// sendLocked pushes msg onto the connection's OutChan without blocking. A
// full buffer drops the message.
func (h *Hub) sendLocked(id string, msg game.Message) {
	c, ok := h.conns[id]
	if !ok {
		return
	}
	select {
	case c.OutChan <- msg:
	default:
		h.log.WithFields(logrus.Fields{
			"conn": id,
			"type": msg.Type,
		}).Warn("outbound buffer full, dropped message")
	}
}
