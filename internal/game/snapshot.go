// internal/game/snapshot.go
package game

// PublicLogSize is how many log entries a snapshot carries.
const PublicLogSize = 20

// PublicPlayer is a player as seen by everyone in the room.
type PublicPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// PublicState is the redacted room view broadcast to all members. It never
// carries the current card.
type PublicState struct {
	Code   string `json:"code"`
	InGame bool   `json:"inGame"`
	// EndAt is the deadline in unix milliseconds, null outside a turn.
	EndAt *int64 `json:"endAt"`
	// DescriberID is empty outside a turn.
	DescriberID string         `json:"describerId"`
	Players     []PublicPlayer `json:"players"`
	Log         []LogEntry     `json:"log"`
}

// snapshot assumes the lock is held.
func (r *Room) snapshot() PublicState {
	s := PublicState{
		Code:    r.Code,
		InGame:  r.InGame(),
		Players: make([]PublicPlayer, 0, len(r.Order)),
	}
	if s.InGame {
		endAt := r.EndAt.UnixMilli()
		s.EndAt = &endAt
		s.DescriberID = r.describerID()
	}
	for _, id := range r.Order {
		p, ok := r.Players[id]
		if !ok {
			continue
		}
		s.Players = append(s.Players, PublicPlayer{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	n := len(r.Log)
	if n > PublicLogSize {
		n = PublicLogSize
	}
	s.Log = make([]LogEntry, n)
	copy(s.Log, r.Log[:n])
	return s
}
