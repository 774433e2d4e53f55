// internal/game/registry.go
package game

import (
	"sync"
	"time"
)

// Registry owns the mapping from room code to Room.
//
// Lock order: a room's lock may be held while calling into the registry, but
// the registry never takes a room lock while holding its own.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	newCode func() string
	now     func() time.Time
}

// NewRegistry returns an empty registry using RandomCode for new rooms.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		newCode: RandomCode,
		now:     time.Now,
	}
}

// Create registers a new room with the host as its only player and first in
// the rotation. Codes are resampled until they do not collide with an open room.
func (reg *Registry) Create(hostID, hostName string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.newCode()
	for {
		if _, taken := reg.rooms[code]; !taken {
			break
		}
		code = reg.newCode()
	}
	r := newRoom(code, hostID, hostName)
	reg.rooms[code] = r
	return r
}

// Get looks a room up by (normalized) code.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[NormalizeCode(code)]
	return r, ok
}

// Join appends a player to an open room. A blank name becomes "Player".
func (reg *Registry) Join(code, id, name string) (*Room, error) {
	r, ok := reg.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomNotFound
	}
	name = cleanName(name, "Player")
	r.addPlayer(id, name)
	r.addLog(LogSystem, "👋 "+name+" joined.", reg.now())
	return r, nil
}

// Snapshot returns the public view of a room.
func (reg *Registry) Snapshot(code string) (*PublicState, bool) {
	r, ok := reg.Get(code)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false
	}
	s := r.snapshot()
	return &s, true
}

// Delete cancels the room's timer and removes it.
func (reg *Registry) Delete(code string) {
	r := reg.remove(code)
	if r == nil {
		return
	}
	r.mu.Lock()
	r.closed = true
	r.cancelTimer()
	r.mu.Unlock()
}

// Len is the number of open rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// remove only touches the map, so it is safe to call with a room lock held.
func (reg *Registry) remove(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code = NormalizeCode(code)
	r, ok := reg.rooms[code]
	if !ok {
		return nil
	}
	delete(reg.rooms, code)
	return r
}
