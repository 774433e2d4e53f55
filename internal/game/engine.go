// internal/game/engine.go
package game

import (
	"context"
	"time"

	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/jason-s-yu/taboo/internal/cards"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTurnDuration = 60 * time.Second
	DefaultTurnPause    = 700 * time.Millisecond
)

// EndReason says why a turn ended.
type EndReason string

const (
	ReasonTimeout EndReason = "timeout"
	ReasonGuessed EndReason = "guessed"
	ReasonSkip    EndReason = "skip"
)

// TurnRecorder receives every finished turn. It is called off the room lock.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, rec cache.TurnRecord) error
}

// Engine drives rooms through their turns and applies player actions. Every
// transition runs with the room's lock held, so actions, timer expiries and
// disconnects on one room are serialized while distinct rooms proceed
// independently.
type Engine struct {
	rooms  *Registry
	cards  cards.Source
	notify Notifier
	log    logrus.FieldLogger

	// TurnDuration is how long a card stays live.
	TurnDuration time.Duration
	// TurnPause separates the end of a turn from the next deal.
	TurnPause time.Duration
	// Recorder is optional.
	Recorder TurnRecorder

	now func() time.Time
}

// NewEngine wires an engine with the default turn timings.
func NewEngine(rooms *Registry, src cards.Source, notify Notifier, logger logrus.FieldLogger) *Engine {
	return &Engine{
		rooms:        rooms,
		cards:        src,
		notify:       notify,
		log:          logger,
		TurnDuration: DefaultTurnDuration,
		TurnPause:    DefaultTurnPause,
		now:          time.Now,
	}
}

// Rooms exposes the registry the engine mutates.
func (e *Engine) Rooms() *Registry {
	return e.rooms
}

// StartTurn deals a card to the current describer and arms the deadline.
func (e *Engine) StartTurn(code string) {
	r, ok := e.rooms.Get(code)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.startTurn(r)
}

// EndTurn finishes the live turn. It is a no-op unless the room is active, so
// a guess and a deadline racing each other end the turn exactly once.
func (e *Engine) EndTurn(code string, reason EndReason) {
	r, ok := e.rooms.Get(code)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.endTurn(r, reason)
}

// startTurn assumes the lock is held.
func (e *Engine) startTurn(r *Room) {
	if r.closed {
		return
	}
	if len(r.Order) < MinPlayers {
		r.cancelTimer()
		r.clearTurn(PhaseWaiting)
		r.addLog(LogSystem, "Need at least 2 players.", e.now())
		e.broadcastState(r)
		return
	}

	r.cancelTimer()
	if r.ClueIndex < 0 || r.ClueIndex >= len(r.Order) {
		r.ClueIndex = 0
	}

	card := e.cards.Draw()
	r.Phase = PhaseActive
	r.CurrentCard = &card
	r.EndAt = e.now().Add(e.TurnDuration)

	describer := r.describer()
	e.notify.ToPlayer(describer.ID, Message{Type: MsgCard, Card: &card})
	e.notify.ToRoomExcept(r.Code, describer.ID, noticeMessage(MsgCardHidden, "Guess the word! Type your guesses."))

	r.addLog(LogSystem, "🎤 "+describer.Name+" is describing!", e.now())
	e.broadcastState(r)

	e.log.WithFields(logrus.Fields{
		"room":      r.Code,
		"describer": describer.ID,
	}).Debug("turn started")

	e.arm(r, e.TurnDuration, func(r *Room) {
		e.endTurn(r, ReasonTimeout)
	})
}

// endTurn assumes the lock is held. It reports whether a turn was ended.
func (e *Engine) endTurn(r *Room, reason EndReason) bool {
	if r.closed || r.Phase != PhaseActive {
		return false
	}
	r.cancelTimer()

	describer := r.describer()
	name := "Someone"
	if describer != nil {
		name = describer.Name
	}
	word := ""
	if r.CurrentCard != nil {
		word = r.CurrentCard.Word
	}

	scored := false
	var text string
	switch reason {
	case ReasonTimeout:
		text = "⏱️ Time's up! Next turn."
	case ReasonGuessed:
		if describer != nil {
			describer.Score++
			scored = true
		}
		text = "✅ Guessed! (" + word + ") — point to " + name
	default:
		text = "⏭️ Skipped! Next turn."
	}
	r.addLog(LogSystem, text, e.now())

	rec := cache.TurnRecord{
		RoomCode:      r.Code,
		DescriberName: name,
		Word:          word,
		Reason:        string(reason),
		Scored:        scored,
		Timestamp:     e.now().UnixMilli(),
	}
	if describer != nil {
		rec.DescriberID = describer.ID
	}

	if len(r.Order) > 0 {
		r.ClueIndex = (r.ClueIndex + 1) % len(r.Order)
	}
	r.clearTurn(PhaseTransition)

	e.broadcastState(r)
	e.notify.ToRoom(r.Code, noticeMessage(MsgCardHidden, "Turn over. Starting next turn…"))

	e.log.WithFields(logrus.Fields{
		"room":   r.Code,
		"reason": reason,
		"word":   word,
	}).Info("turn ended")

	e.arm(r, e.TurnPause, func(r *Room) {
		if len(r.Order) < MinPlayers {
			r.Phase = PhaseWaiting
			return
		}
		e.startTurn(r)
	})

	if e.Recorder != nil {
		go e.recordTurn(rec)
	}
	return true
}

// arm replaces the room's pending timer. The callback runs with the room lock
// held and only if it is still the room's current timer.
func (e *Engine) arm(r *Room, d time.Duration, fn func(r *Room)) {
	r.cancelTimer()
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.timer != t {
			e.log.WithField("room", r.Code).Debug("stale timer fired, ignoring")
			return
		}
		r.timer = nil
		fn(r)
	})
	r.timer = t
}

func (e *Engine) broadcastState(r *Room) {
	e.notify.ToRoom(r.Code, stateMessage(r.snapshot()))
}

func (e *Engine) recordTurn(rec cache.TurnRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Recorder.RecordTurn(ctx, rec); err != nil {
		e.log.WithFields(logrus.Fields{
			"room":  rec.RoomCode,
			"error": err,
		}).Warn("failed to record turn")
	}
}
