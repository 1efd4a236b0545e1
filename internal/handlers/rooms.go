// internal/handlers/rooms.go
package handlers

import (
	"log"
	"sync"
)

// client is a single live connection's presence in the gateway.
type client struct {
	// id is the ephemeral connection identifier; it doubles as the player id
	// for the lifetime of the socket.
	id string
	// name is the display name carried in by a guest token, if any.
	name string
	out  chan outbound
}

// send pushes an event onto the client's out channel non-blockingly. A full
// or closed channel drops the message; the write pump or disconnect cleanup
// will deal with the broken peer.
func (c *client) send(ev outbound) {
	select {
	case c.out <- ev:
	default:
		log.Printf("rooms: out channel for conn %s closed or full, dropped %q", c.id, ev.Event)
	}
}

// sendError sends a targeted error event to this connection only.
func (c *client) sendError(msg string) {
	c.send(outbound{Event: EventError, Data: errorPayload{Message: msg}})
}

// rooms tracks which connections are joined to which lobby channel. A
// connection is a member of at most one room at a time.
type rooms struct {
	mu      sync.Mutex
	members map[string]map[string]*client
}

func newRooms() *rooms {
	return &rooms{members: make(map[string]map[string]*client)}
}

// join adds the client to the lobby's room.
func (r *rooms) join(lobbyID string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.members[lobbyID]
	if !ok {
		room = make(map[string]*client)
		r.members[lobbyID] = room
	}
	room[c.id] = c
}

// leave removes the connection from the lobby's room, dropping the room once
// empty. Leaving a room you are not in is a no-op.
func (r *rooms) leave(lobbyID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.members[lobbyID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.members, lobbyID)
	}
}

// broadcast sends the event to every connection in the lobby's room.
// Delivery is fire-and-forget per recipient: a slow or gone peer drops the
// message without failing the broadcast.
func (r *rooms) broadcast(lobbyID string, ev outbound) {
	r.mu.Lock()
	targets := make([]*client, 0, len(r.members[lobbyID]))
	for _, c := range r.members[lobbyID] {
		targets = append(targets, c)
	}
	r.mu.Unlock()

	for _, c := range targets {
		c.send(ev)
	}
}
