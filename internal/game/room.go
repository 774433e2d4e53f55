// internal/game/room.go
package game

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jason-s-yu/taboo/internal/cards"
)

// MinPlayers is the smallest room that can play a turn.
const MinPlayers = 2

// maxNameLen caps display names, counted in runes.
const maxNameLen = 24

// Phase is the turn state of a room.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"    // no turn running
	PhaseActive     Phase = "active"     // card live, deadline armed
	PhaseTransition Phase = "transition" // turn just ended, pause before the next one
)

// LogType tags entries of the room log.
type LogType string

const (
	LogSystem LogType = "system"
	LogGuess  LogType = "guess"
)

// LogEntry is a single line of the room's event log.
type LogEntry struct {
	TS   int64   `json:"ts"`
	Type LogType `json:"type"`
	Text string  `json:"text"`
}

// Player is a member of a room.
type Player struct {
	ID    string
	Name  string
	Score int
}

// Room holds the state of one game session. All fields are guarded by mu;
// methods with a lowercase name assume the caller holds it.
type Room struct {
	Code   string
	HostID string

	Players map[string]*Player
	// Order is join order and defines the describer rotation.
	Order     []string
	ClueIndex int

	Phase       Phase
	EndAt       time.Time
	CurrentCard *cards.Card

	// Log is newest first.
	Log []LogEntry

	// timer is the pending deadline or post-turn pause. Only the Engine arms
	// or cancels it.
	timer *time.Timer
	// closed is set once the room leaves the registry; late callbacks check it.
	closed bool

	mu sync.Mutex
}

func newRoom(code, hostID, hostName string) *Room {
	r := &Room{
		Code:    code,
		HostID:  hostID,
		Players: make(map[string]*Player),
		Phase:   PhaseWaiting,
	}
	r.addPlayer(hostID, cleanName(hostName, "Host"))
	return r
}

// InGame reports whether a turn is live. Assumes lock is held.
func (r *Room) InGame() bool {
	return r.Phase == PhaseActive
}

func (r *Room) addPlayer(id, name string) {
	if _, exists := r.Players[id]; exists {
		r.Players[id].Name = name
		return
	}
	r.Players[id] = &Player{ID: id, Name: name}
	r.Order = append(r.Order, id)
}

// removePlayer drops id from Players and Order and returns the position it
// held in Order.
func (r *Room) removePlayer(id string) (int, bool) {
	if _, ok := r.Players[id]; !ok {
		return -1, false
	}
	delete(r.Players, id)
	idx := -1
	kept := r.Order[:0]
	for i, pid := range r.Order {
		if pid == id {
			idx = i
			continue
		}
		kept = append(kept, pid)
	}
	r.Order = kept
	return idx, true
}

// describer returns the player at ClueIndex, or nil when nobody is seated.
func (r *Room) describer() *Player {
	if len(r.Order) == 0 || r.ClueIndex < 0 || r.ClueIndex >= len(r.Order) {
		return nil
	}
	return r.Players[r.Order[r.ClueIndex]]
}

func (r *Room) describerID() string {
	if p := r.describer(); p != nil {
		return p.ID
	}
	return ""
}

func (r *Room) addLog(kind LogType, text string, at time.Time) {
	entry := LogEntry{TS: at.UnixMilli(), Type: kind, Text: text}
	r.Log = append([]LogEntry{entry}, r.Log...)
}

func (r *Room) cancelTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// clearTurn drops the live card and deadline.
func (r *Room) clearTurn(next Phase) {
	r.Phase = next
	r.EndAt = time.Time{}
	r.CurrentCard = nil
}

// NormalizeCode trims and upper-cases a room code typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func cleanName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}
