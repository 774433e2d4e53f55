// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/game"
	"github.com/jason-s-yu/taboo/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "taboo"

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
	readLimit    = 4096
)

// Gateway accepts websocket clients and feeds their messages to the engine.
type Gateway struct {
	engine *game.Engine
	hub    *Hub
	log    logrus.FieldLogger

	// MsgRate and MsgBurst size each connection's inbound token bucket.
	MsgRate  float64
	MsgBurst int
}

func NewGateway(engine *game.Engine, hub *Hub, logger logrus.FieldLogger) *Gateway {
	return &Gateway{
		engine:   engine,
		hub:      hub,
		log:      logger,
		MsgRate:  10,
		MsgBurst: 20,
	}
}

// WSHandler upgrades the request and runs the connection until it closes.
func (g *Gateway) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			g.log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the taboo subprotocol")
			return
		}
		c.SetReadLimit(readLimit)

		conn := NewConnection(uuid.NewString(), g.MsgRate, g.MsgBurst)
		g.hub.Register(conn)
		g.hub.ToPlayer(conn.ID, game.Message{Type: game.MsgWelcome, ID: conn.ID})
		middleware.LogWebSocketConnect(g.log, r.RemoteAddr, conn.ID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go g.writePump(ctx, cancel, c, conn)
		readErr := g.readPump(ctx, c, conn)

		// the room may already be gone if the host left first
		if code, ok := g.hub.RoomOf(conn.ID); ok {
			g.engine.Disconnect(code, conn.ID)
		}
		g.hub.Unregister(conn.ID)
		cancel()
		middleware.LogWebSocketDisconnect(g.log, r.RemoteAddr, conn.ID, readErr)

		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump reads frames until the connection closes. It returns nil for a
// clean close.
func (g *Gateway) readPump(ctx context.Context, c *websocket.Conn, conn *Connection) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			g.log.WithField("conn", conn.ID).Debug("ignoring non-text frame")
			continue
		}
		if !conn.Allow() {
			g.hub.ToPlayer(conn.ID, errorMessage("Slow down."))
			continue
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			g.hub.ToPlayer(conn.ID, errorMessage("Invalid JSON format."))
			continue
		}
		g.dispatch(conn, in)
	}
}

// dispatch routes one inbound message. Rejections go back to the sender only.
func (g *Gateway) dispatch(conn *Connection, in inbound) {
	var err error
	switch in.Type {
	case ActionPing:
		g.hub.ToPlayer(conn.ID, game.Message{Type: game.MsgPong})
		return
	case ActionCreateRoom:
		if _, bound := g.hub.RoomOf(conn.ID); bound {
			err = game.ErrAlreadyInRoom
			break
		}
		g.engine.CreateRoom(conn.ID, in.Name)
	case ActionJoinRoom:
		if _, bound := g.hub.RoomOf(conn.ID); bound {
			err = game.ErrAlreadyInRoom
			break
		}
		_, err = g.engine.JoinRoom(in.Code, conn.ID, in.Name)
	case ActionStartGame:
		err = g.engine.StartGame(g.roomCode(conn, in), conn.ID)
	case ActionSubmitGuess:
		g.engine.SubmitGuess(g.roomCode(conn, in), conn.ID, in.Text)
	case ActionSkip:
		err = g.engine.Skip(g.roomCode(conn, in), conn.ID)
	case ActionCorrect:
		err = g.engine.ConfirmCorrect(g.roomCode(conn, in), conn.ID)
	default:
		g.hub.ToPlayer(conn.ID, errorMessage("Unknown action type: "+in.Type))
		return
	}

	if err != nil {
		g.log.WithFields(logrus.Fields{
			"conn":   conn.ID,
			"action": in.Type,
			"error":  err,
		}).Debug("action rejected")
		g.hub.ToPlayer(conn.ID, errorMessage(errorText(in.Type, err)))
	}
}

// roomCode is the code named in the message, or the connection's own room
// when the message leaves it out.
func (g *Gateway) roomCode(conn *Connection, in inbound) string {
	if in.Code != "" {
		return in.Code
	}
	code, _ := g.hub.RoomOf(conn.ID)
	return code
}

// writePump drains OutChan onto the socket and keeps the connection alive
// with pings. A failed write cancels ctx, which stops the read pump too.
func (g *Gateway) writePump(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cancel()

	logger := g.log.WithField("conn", conn.ID)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing %s: %v", msg.Type, err)
				continue
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()
			if err != nil {
				logger.Warnf("failed to write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancelPing()
			if err != nil {
				logger.Warnf("failed to ping: %v, assuming disconnect", err)
				return
			}
		}
	}
}

// PingHandler answers health checks on the root path.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}
