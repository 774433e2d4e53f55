package game

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, time.Minute)

	code := e.CreateRoom("host", "Anna")
	require.Len(t, code, CodeLength)

	bound, ok := mn.memberOf("host")
	require.True(t, ok)
	assert.Equal(t, code, bound)

	created := mn.ofType(MsgRoomCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "host", created[0].target)
	assert.Equal(t, code, created[0].msg.Code)

	states := mn.ofType(MsgRoomState)
	require.Len(t, states, 1)
	assert.Equal(t, code, states[0].target)
}

func TestJoinRoom(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, time.Minute)
	code := e.CreateRoom("host", "Anna")

	got, err := e.JoinRoom(" "+code+" ", "p2", "Marco")
	require.NoError(t, err)
	assert.Equal(t, code, got)

	bound, ok := mn.memberOf("p2")
	require.True(t, ok)
	assert.Equal(t, code, bound)

	joined := mn.ofType(MsgRoomJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "p2", joined[0].target)

	_, err = e.JoinRoom("QQQQQ", "p3", "Luca")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, ok = mn.memberOf("p3")
	assert.False(t, ok)
}

// Anna hosts, Marco joins and guesses the word; the next turn starts on its own.
func TestScenarioGuessAndNextTurn(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, 20*time.Millisecond)

	code := e.CreateRoom("anna", "Anna")
	_, err := e.JoinRoom(code, "marco", "Marco")
	require.NoError(t, err)

	s, ok := e.rooms.Snapshot(code)
	require.True(t, ok)
	require.Len(t, s.Players, 2)
	for _, p := range s.Players {
		assert.Equal(t, 0, p.Score)
	}

	require.NoError(t, e.StartGame(code, "anna"))
	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, "anna", r.describerID())
	})
	dealt := mn.ofType(MsgCard)
	require.Len(t, dealt, 1)
	assert.Equal(t, "anna", dealt[0].target)

	e.SubmitGuess(code, "marco", "PIZZA")

	inspect(t, e, code, func(r *Room) {
		assert.Equal(t, 1, r.Players["anna"].Score)
		assert.Equal(t, 0, r.Players["marco"].Score)
		assert.False(t, r.InGame())
	})

	require.Eventually(t, func() bool {
		active := false
		inspect(t, e, code, func(r *Room) { active = r.InGame() })
		return active
	}, time.Second, 5*time.Millisecond)

	inspect(t, e, code, func(r *Room) {
		assert.Equal(t, "marco", r.describerID())
	})
}

func TestGuessIsCaseInsensitive(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")
	require.NoError(t, e.StartGame(code, "host"))

	e.SubmitGuess(code, "p2", "  pizza ")

	inspect(t, e, code, func(r *Room) {
		assert.Equal(t, 1, r.Players["host"].Score)
		assert.Equal(t, PhaseTransition, r.Phase)
		assert.Equal(t, 1, countLog(r, "p2: pizza"))
	})
}

func TestWrongGuessIsLogged(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")
	require.NoError(t, e.StartGame(code, "host"))
	mn.clear()

	e.SubmitGuess(code, "p2", "pasta")

	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, LogGuess, r.Log[0].Type)
		assert.Equal(t, "💬 p2: pasta", r.Log[0].Text)
	})
	assert.Len(t, mn.ofType(MsgRoomState), 1)
}

func TestDescriberGuessNeverScores(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")
	require.NoError(t, e.StartGame(code, "host"))

	e.SubmitGuess(code, "host", "pizza")

	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, 0, r.Players["host"].Score)
		assert.Equal(t, 1, countLog(r, "Anna: pizza"))
	})
}

func TestIgnoredGuesses(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")

	// not active yet
	e.SubmitGuess(code, "p2", "pizza")
	require.NoError(t, e.StartGame(code, "host"))
	mn.clear()

	e.SubmitGuess(code, "p2", "   ")
	e.SubmitGuess(code, "stranger", "pizza")
	e.SubmitGuess("NOPE2", "p2", "pizza")

	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, 0, r.Players["host"].Score)
		assert.Equal(t, 0, countLog(r, "pizza"))
	})
	assert.Empty(t, mn.ofType(MsgRoomState))
}

func TestStartGameValidation(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := e.CreateRoom("host", "Anna")

	assert.ErrorIs(t, e.StartGame("NOPE3", "host"), ErrRoomNotFound)
	assert.ErrorIs(t, e.StartGame(code, "host"), ErrNotEnoughPlayers)

	_, err := e.JoinRoom(code, "p2", "Marco")
	require.NoError(t, err)
	assert.ErrorIs(t, e.StartGame(code, "p2"), ErrNotHost)

	inspect(t, e, code, func(r *Room) {
		assert.False(t, r.InGame())
	})
}

func TestStartGameResetsState(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2", "p3")

	inspect(t, e, code, func(r *Room) {
		r.Players["p2"].Score = 4
		r.ClueIndex = 2
	})

	require.NoError(t, e.StartGame(code, "host"))

	inspect(t, e, code, func(r *Room) {
		for _, p := range r.Players {
			assert.Equal(t, 0, p.Score)
		}
		assert.Equal(t, 0, r.ClueIndex)
		require.Len(t, r.Log, 2)
		assert.Contains(t, r.Log[1].Text, "Game started")
		assert.Contains(t, r.Log[0].Text, "describing")
	})
}

func TestSkipAndConfirmOnlyByDescriber(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")

	// nothing happens outside a turn
	assert.NoError(t, e.Skip(code, "p2"))

	require.NoError(t, e.StartGame(code, "host"))

	assert.ErrorIs(t, e.Skip(code, "p2"), ErrNotDescriber)
	assert.ErrorIs(t, e.ConfirmCorrect(code, "p2"), ErrNotDescriber)
	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
	})

	require.NoError(t, e.Skip(code, "host"))
	inspect(t, e, code, func(r *Room) {
		assert.Equal(t, 0, r.Players["host"].Score)
		assert.Contains(t, r.Log[0].Text, "Skipped")
		assert.Equal(t, 1, r.ClueIndex)
	})
}

func TestConfirmCorrectAwardsPoint(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")
	require.NoError(t, e.StartGame(code, "host"))

	require.NoError(t, e.ConfirmCorrect(code, "host"))
	// second confirm lands after the turn ended
	require.NoError(t, e.ConfirmCorrect(code, "host"))

	inspect(t, e, code, func(r *Room) {
		assert.Equal(t, 1, r.Players["host"].Score)
		assert.Equal(t, 1, countLog(r, "Guessed!"))
	})
}

func TestHostDisconnectClosesRoom(t *testing.T) {
	e, mn := setupEngine(t, 40*time.Millisecond, time.Minute)
	code := roomWithPlayers(t, e, "p2", "p3")
	require.NoError(t, e.StartGame(code, "host"))
	mn.clear()

	e.Disconnect(code, "host")

	_, ok := e.rooms.Get(code)
	assert.False(t, ok)
	toasts := mn.ofType(MsgToast)
	require.Len(t, toasts, 1)
	assert.Equal(t, "room", toasts[0].audience)
	for _, id := range []string{"host", "p2", "p3"} {
		_, bound := mn.memberOf(id)
		assert.False(t, bound, "%s should be unbound", id)
	}

	_, err := e.JoinRoom(code, "p4", "Luca")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// the deadline was cancelled with the room
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, mn.ofType(MsgToast), 1)
	assert.Empty(t, mn.ofType(MsgCardHidden))
}

func TestPlayerDropEndsTurnWithoutRestart(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, 20*time.Millisecond)
	code := roomWithPlayers(t, e, "p2")
	require.NoError(t, e.StartGame(code, "host"))
	mn.clear()

	e.Disconnect(code, "p2")

	inspect(t, e, code, func(r *Room) {
		assert.False(t, r.InGame())
		assert.Equal(t, PhaseWaiting, r.Phase)
		assert.Nil(t, r.CurrentCard)
		assert.Nil(t, r.timer)
		assert.Equal(t, []string{"host"}, r.Order)
		assert.NotContains(t, r.Players, "p2")
		assert.Equal(t, 1, countLog(r, "p2 left"))
	})

	hidden := mn.ofType(MsgCardHidden)
	require.Len(t, hidden, 1)
	assert.Equal(t, "room", hidden[0].audience)

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, mn.ofType(MsgCard))
	inspect(t, e, code, func(r *Room) {
		assert.False(t, r.InGame())
	})
}

func TestDropBeforeDescriberKeepsDescriber(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "b", "c", "d")
	inspect(t, e, code, func(r *Room) { r.ClueIndex = 2 })
	e.StartTurn(code)

	e.Disconnect(code, "b")

	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, 1, r.ClueIndex)
		assert.Equal(t, "c", r.describerID())
	})
}

func TestDescriberDropRedealsTurn(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "b", "c")
	inspect(t, e, code, func(r *Room) { r.ClueIndex = 2 })
	e.StartTurn(code)
	mn.clear()

	e.Disconnect(code, "c")

	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, 0, r.ClueIndex)
		assert.Equal(t, "host", r.describerID())
	})
	dealt := mn.ofType(MsgCard)
	require.Len(t, dealt, 1)
	assert.Equal(t, "host", dealt[0].target)
}

func TestDescriberDropRestartsDeadline(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	e.now = func() time.Time { return clock }

	code := roomWithPlayers(t, e, "b", "c")
	e.StartTurn(code)
	inspect(t, e, code, func(r *Room) {
		assert.Equal(t, "host", r.describerID())
		assert.Equal(t, start.Add(time.Minute), r.EndAt)
	})

	clock = start.Add(40 * time.Second)
	// the host leaving closes the room, so move the turn to b first
	inspect(t, e, code, func(r *Room) { r.ClueIndex = 1 })
	e.Disconnect(code, "b")

	inspect(t, e, code, func(r *Room) {
		assert.True(t, r.InGame())
		assert.Equal(t, "c", r.describerID())
		assert.Equal(t, clock.Add(time.Minute), r.EndAt)
	})
}

func TestDisconnectUnknown(t *testing.T) {
	e, mn := setupEngine(t, time.Minute, time.Minute)
	code := roomWithPlayers(t, e, "p2")
	mn.clear()

	e.Disconnect("NOPE4", "p2")
	e.Disconnect(code, "ghost")

	inspect(t, e, code, func(r *Room) {
		assert.Len(t, r.Order, 2)
	})
	assert.Empty(t, mn.ofType(MsgRoomState))
}

// Random joins, drops and turn endings never leave ClueIndex dangling.
func TestClueIndexStaysValid(t *testing.T) {
	e, _ := setupEngine(t, time.Minute, time.Minute)
	code := e.CreateRoom("host", "Anna")
	rng := rand.New(rand.NewSource(7))
	next := 0

	for step := 0; step < 500; step++ {
		switch rng.Intn(5) {
		case 0, 1:
			next++
			_, err := e.JoinRoom(code, "p"+strconv.Itoa(next), "")
			require.NoError(t, err)
		case 2:
			var victim string
			inspect(t, e, code, func(r *Room) {
				if len(r.Order) > 1 {
					victim = r.Order[1+rng.Intn(len(r.Order)-1)]
				}
			})
			if victim != "" {
				e.Disconnect(code, victim)
			}
		case 3:
			e.StartTurn(code)
		case 4:
			e.EndTurn(code, ReasonSkip)
		}

		inspect(t, e, code, func(r *Room) {
			if len(r.Order) == 0 {
				return
			}
			require.GreaterOrEqual(t, r.ClueIndex, 0)
			require.Less(t, r.ClueIndex, len(r.Order))
			require.Contains(t, r.Players, r.Order[r.ClueIndex])
			if len(r.Order) < MinPlayers {
				require.False(t, r.InGame())
			}
		})
	}
}
