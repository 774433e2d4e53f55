// internal/game/actions.go
package game

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// CreateRoom registers a room hosted by connID and returns its code.
func (e *Engine) CreateRoom(connID, name string) string {
	r := e.rooms.Create(connID, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	e.notify.Attach(connID, r.Code)
	e.notify.ToPlayer(connID, Message{Type: MsgRoomCreated, Code: r.Code})
	e.broadcastState(r)

	e.log.WithFields(logrus.Fields{
		"room": r.Code,
		"host": connID,
	}).Info("room created")
	return r.Code
}

// JoinRoom adds connID to the room named by code, which is normalized first.
func (e *Engine) JoinRoom(code, connID, name string) (string, error) {
	code = NormalizeCode(code)
	r, err := e.rooms.Join(code, connID, name)
	if err != nil {
		return "", err
	}
	e.notify.Attach(connID, r.Code)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// host left between the join and the attach
		e.notify.Detach(connID)
		return "", ErrRoomNotFound
	}
	e.notify.ToPlayer(connID, Message{Type: MsgRoomJoined, Code: r.Code})
	e.broadcastState(r)

	e.log.WithFields(logrus.Fields{
		"room":    r.Code,
		"player":  connID,
		"players": len(r.Order),
	}).Info("player joined")
	return r.Code, nil
}

// StartGame resets scores, rotation and log, then deals the first turn. Only
// the host may call it and the room needs at least two players.
func (e *Engine) StartGame(code, connID string) error {
	r, ok := e.rooms.Get(code)
	if !ok {
		return ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if r.HostID != connID {
		return ErrNotHost
	}
	if len(r.Order) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	kept := r.Order[:0]
	for _, id := range r.Order {
		if p, ok := r.Players[id]; ok {
			p.Score = 0
			kept = append(kept, id)
		}
	}
	r.Order = kept
	r.ClueIndex = 0
	r.Log = nil
	r.addLog(LogSystem, "🎮 Game started!", e.now())

	e.broadcastState(r)
	e.startTurn(r)
	return nil
}

// SubmitGuess logs a guess for the whole room and ends the turn when it
// matches the card. Invalid guesses are dropped silently. The describer's own
// messages are logged but never checked.
func (e *Engine) SubmitGuess(code, connID, text string) {
	r, ok := e.rooms.Get(code)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.Phase != PhaseActive {
		return
	}
	me, ok := r.Players[connID]
	if !ok {
		return
	}
	guess := strings.TrimSpace(text)
	if guess == "" {
		return
	}

	r.addLog(LogGuess, "💬 "+me.Name+": "+guess, e.now())
	e.broadcastState(r)

	if connID == r.describerID() || r.CurrentCard == nil {
		return
	}
	if strings.EqualFold(guess, r.CurrentCard.Word) {
		e.endTurn(r, ReasonGuessed)
	}
}

// Skip forfeits the live turn. Only the describer may skip.
func (e *Engine) Skip(code, connID string) error {
	return e.describerAction(code, connID, ReasonSkip)
}

// ConfirmCorrect lets the describer award the point when the word was said
// out loud rather than typed.
func (e *Engine) ConfirmCorrect(code, connID string) error {
	return e.describerAction(code, connID, ReasonGuessed)
}

func (e *Engine) describerAction(code, connID string, reason EndReason) error {
	r, ok := e.rooms.Get(code)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.Phase != PhaseActive {
		return nil
	}
	if connID != r.describerID() {
		return ErrNotDescriber
	}
	e.endTurn(r, reason)
	return nil
}

// Disconnect handles a connection that dropped while bound to code. A
// departing host closes the room for everyone; anyone else is removed and the
// room is checked for whether play can continue.
func (e *Engine) Disconnect(code, connID string) {
	r, ok := e.rooms.Get(code)
	if !ok {
		e.notify.Detach(connID)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		e.notify.Detach(connID)
		return
	}

	logger := e.log.WithFields(logrus.Fields{"room": r.Code, "player": connID})

	if r.HostID == connID {
		e.notify.ToRoom(r.Code, noticeMessage(MsgToast, "Host left: room closed."))
		r.cancelTimer()
		r.closed = true
		e.rooms.remove(r.Code)
		e.notify.DropRoom(r.Code)
		logger.Info("host left, room closed")
		return
	}

	name := "A player"
	if p, ok := r.Players[connID]; ok {
		name = p.Name
	}
	wasDescriber := r.Phase == PhaseActive && connID == r.describerID()

	idx, removed := r.removePlayer(connID)
	e.notify.Detach(connID)
	if !removed {
		return
	}
	if idx < r.ClueIndex {
		r.ClueIndex--
	}
	if r.ClueIndex >= len(r.Order) {
		r.ClueIndex = 0
	}

	r.addLog(LogSystem, "🚪 "+name+" left.", e.now())
	e.broadcastState(r)
	logger.WithField("players", len(r.Order)).Info("player left")

	if r.Phase != PhaseActive {
		return
	}
	if len(r.Order) < MinPlayers {
		r.cancelTimer()
		r.clearTurn(PhaseWaiting)
		e.notify.ToRoom(r.Code, noticeMessage(MsgCardHidden, "At least 2 players are needed to continue."))
		e.broadcastState(r)
		logger.Info("turn stopped, not enough players")
		return
	}
	if wasDescriber {
		// nobody holds the card anymore, deal a new card to whoever sits at
		// ClueIndex now; the deadline restarts with the full turn duration
		e.startTurn(r)
	}
}
