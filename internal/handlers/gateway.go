// internal/handlers/gateway.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/laststand/lobbyd/internal/auth"
	"github.com/laststand/lobbyd/internal/lobby"
	"github.com/laststand/lobbyd/internal/session"
)

// Gateway is the connection-handling layer: it decodes client commands,
// drives the lobby store, and fans resulting snapshots out to room members.
type Gateway struct {
	log      *logrus.Logger
	lobbies  *lobby.Store
	sessions *session.Directory
	rooms    *rooms

	// storeTimeout bounds each command's round trips against the store.
	storeTimeout time.Duration
}

// NewGateway wires a Gateway over the lobby store and session directory.
func NewGateway(log *logrus.Logger, lobbies *lobby.Store, sessions *session.Directory, storeTimeout time.Duration) *Gateway {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Gateway{
		log:          log,
		lobbies:      lobbies,
		sessions:     sessions,
		rooms:        newRooms(),
		storeTimeout: storeTimeout,
	}
}

// WSHandler accepts lobby WebSocket connections on /ws. An optional ?token=
// query parameter carries a guest token; invalid or absent tokens degrade to
// an anonymous connection rather than a refusal.
func (g *Gateway) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			g.log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			return
		}

		cl := &client{
			id:  uuid.NewString(),
			out: make(chan outbound, 16),
		}
		if token := r.URL.Query().Get("token"); token != "" {
			if _, name, err := auth.Authenticate(token); err != nil {
				g.log.WithField("conn", cl.id).Warnf("ignoring invalid guest token: %v", err)
			} else {
				cl.name = name
			}
		}

		g.log.WithFields(logrus.Fields{"conn": cl.id, "remote": remoteAddr}).Info("client connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go g.writePump(ctx, c, cl)
		g.readPump(ctx, c, cl)

		// readPump exited: the transport is gone. Resolve any lobby binding
		// and clean up as if the client had left.
		g.handleDisconnect(cl)
		g.log.WithFields(logrus.Fields{"conn": cl.id, "remote": remoteAddr}).Info("client disconnected")
	}
}

// readPump decodes inbound envelopes and dispatches them until the
// connection closes or errors.
func (g *Gateway) readPump(ctx context.Context, c *websocket.Conn, cl *client) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				g.log.WithField("conn", cl.id).Info("websocket closed normally")
			} else if !strings.Contains(err.Error(), "context canceled") {
				g.log.WithField("conn", cl.id).Warnf("read error: %v (close status %d)", err, closeStatus)
			}
			return
		}
		if typ != websocket.MessageText {
			g.log.WithField("conn", cl.id).Warnf("ignoring non-text message type %d", typ)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			g.log.WithField("conn", cl.id).Warnf("invalid json: %v", err)
			cl.sendError("Invalid JSON format")
			continue
		}

		g.handleMessage(ctx, cl, env)
	}
}

// writePump marshals queued events onto the socket and keeps the connection
// alive with periodic pings.
func (g *Gateway) writePump(ctx context.Context, c *websocket.Conn, cl *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cl.out:
			if !ok {
				return
			}
			data, err := json.Marshal(Envelope{Event: ev.Event, Data: mustMarshal(ev.Data)})
			if err != nil {
				g.log.WithField("conn", cl.id).Warnf("failed to marshal outgoing %q: %v", ev.Event, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				g.log.WithField("conn", cl.id).Warnf("write failed: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				g.log.WithField("conn", cl.id).Warnf("ping failed, assuming disconnect: %v", err)
				return
			}
		}
	}
}

// mustMarshal encodes a payload for the envelope's data field. A nil payload
// stays null on the wire (the cleared-snapshot case).
func mustMarshal(v interface{}) json.RawMessage {
	if v == nil {
		return json.RawMessage("null")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// opCtx bounds a command's store round trips so a stalled store cannot pin
// the handler indefinitely.
func (g *Gateway) opCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, g.storeTimeout)
}
