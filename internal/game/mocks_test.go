package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/jason-s-yu/taboo/internal/cards"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// sent is one message captured by mockNotifier.
type sent struct {
	audience string // "room", "except" or "player"
	target   string // room code or player id
	except   string
	msg      Message
}

// mockNotifier collects messages instead of writing to sockets.
type mockNotifier struct {
	mu      sync.Mutex
	sent    []sent
	members map[string]string // connID -> code
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{members: make(map[string]string)}
}

func (m *mockNotifier) Attach(connID, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[connID] = code
}

func (m *mockNotifier) Detach(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, connID)
}

func (m *mockNotifier) DropRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.members {
		if c == code {
			delete(m.members, id)
		}
	}
}

func (m *mockNotifier) ToRoom(code string, msg Message) {
	m.record(sent{audience: "room", target: code, msg: msg})
}

func (m *mockNotifier) ToRoomExcept(code, exceptID string, msg Message) {
	m.record(sent{audience: "except", target: code, except: exceptID, msg: msg})
}

func (m *mockNotifier) ToPlayer(id string, msg Message) {
	m.record(sent{audience: "player", target: id, msg: msg})
}

func (m *mockNotifier) record(s sent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

func (m *mockNotifier) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// ofType returns every captured message of the given type.
func (m *mockNotifier) ofType(t MessageType) []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sent
	for _, s := range m.sent {
		if s.msg.Type == t {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockNotifier) memberOf(connID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.members[connID]
	return c, ok
}

// fixedSource always deals the same card.
type fixedSource struct {
	card cards.Card
}

func (f fixedSource) Draw() cards.Card {
	return cards.Card{Word: f.card.Word, ForbiddenTerms: append([]string(nil), f.card.ForbiddenTerms...)}
}

var pizza = cards.Card{Word: "PIZZA", ForbiddenTerms: []string{"FORNO", "MOZZARELLA", "NAPOLI", "MARINARA", "TRANCIO"}}

// mockRecorder keeps every turn record it receives.
type mockRecorder struct {
	mu      sync.Mutex
	records []cache.TurnRecord
}

func (m *mockRecorder) RecordTurn(_ context.Context, rec cache.TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRecorder) all() []cache.TurnRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cache.TurnRecord(nil), m.records...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// setupEngine builds an engine with a fixed card and the given timings.
// Rooms are deleted at cleanup so no timer outlives the test.
func setupEngine(t *testing.T, turn, pause time.Duration) (*Engine, *mockNotifier) {
	t.Helper()
	reg := NewRegistry()
	mn := newMockNotifier()
	e := NewEngine(reg, fixedSource{card: pizza}, mn, quietLogger())
	e.TurnDuration = turn
	e.TurnPause = pause

	t.Cleanup(func() {
		reg.mu.Lock()
		codes := make([]string, 0, len(reg.rooms))
		for code := range reg.rooms {
			codes = append(codes, code)
		}
		reg.mu.Unlock()
		for _, code := range codes {
			reg.Delete(code)
		}
	})
	return e, mn
}

// roomWithPlayers creates a room hosted by "host" plus the given joiners.
func roomWithPlayers(t *testing.T, e *Engine, joiners ...string) string {
	t.Helper()
	code := e.CreateRoom("host", "Anna")
	for _, id := range joiners {
		_, err := e.JoinRoom(code, id, id)
		require.NoError(t, err)
	}
	return code
}

// inspect runs fn with the room lock held.
func inspect(t *testing.T, e *Engine, code string, fn func(r *Room)) {
	t.Helper()
	r, ok := e.rooms.Get(code)
	require.True(t, ok, "room %s should exist", code)
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}
