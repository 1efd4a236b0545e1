// internal/handlers/commands.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/laststand/lobbyd/internal/lobby"
	"github.com/laststand/lobbyd/internal/session"
)

// handleMessage routes one decoded envelope to its command handler. Every
// store fault surfaces as a targeted error event, never a crashed pump.
func (g *Gateway) handleMessage(ctx context.Context, cl *client, env Envelope) {
	switch env.Event {
	case EventCreateLobby:
		g.handleCreateLobby(ctx, cl, env.Data)
	case EventJoinLobby:
		g.handleJoinLobby(ctx, cl, env.Data)
	case EventSetReady:
		g.handleSetReady(ctx, cl, env.Data)
	case EventStartGame:
		g.handleStartGame(ctx, cl, env.Data)
	case EventLeaveLobby:
		g.handleLeaveLobby(ctx, cl, env.Data)
	case EventGetLobbies:
		g.handleGetLobbies(ctx, cl)
	default:
		g.log.WithField("conn", cl.id).Warnf("unknown event %q", env.Event)
		cl.sendError(fmt.Sprintf("Unknown event: %s", env.Event))
	}
}

// player builds the requester's Player record. An explicit name wins over the
// guest-token name; with neither, a placeholder derived from the connection
// id is used.
func (g *Gateway) player(cl *client, name string) lobby.Player {
	if name == "" {
		name = cl.name
	}
	if name == "" {
		suffix := cl.id
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		name = "Player_" + suffix
	}
	return lobby.Player{ID: cl.id, Name: name}
}

func (g *Gateway) handleCreateLobby(ctx context.Context, cl *client, data json.RawMessage) {
	var payload createLobbyPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		cl.sendError("Invalid createLobby payload")
		return
	}

	opCtx, cancel := g.opCtx(ctx)
	defer cancel()

	host := g.player(cl, payload.Name)
	l, err := g.lobbies.Create(opCtx, host)
	if err != nil {
		g.log.WithField("conn", cl.id).Errorf("create lobby failed: %v", err)
		cl.sendError("Could not create lobby.")
		return
	}

	g.rooms.join(l.ID, cl)
	if err := g.sessions.Bind(opCtx, cl.id, l.ID); err != nil {
		g.log.WithField("conn", cl.id).Errorf("bind session failed: %v", err)
	}

	// No one else is in the room yet.
	cl.send(outbound{Event: EventLobbyState, Data: l})
}

func (g *Gateway) handleJoinLobby(ctx context.Context, cl *client, data json.RawMessage) {
	var payload joinLobbyPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.LobbyID == "" {
		cl.sendError("Invalid joinLobby payload")
		return
	}

	opCtx, cancel := g.opCtx(ctx)
	defer cancel()

	l, err := g.lobbies.Join(opCtx, payload.LobbyID, g.player(cl, payload.Name))
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		cl.sendError("Lobby not found.")
		return
	case errors.Is(err, lobby.ErrFull):
		cl.sendError("Lobby is full.")
		return
	case err != nil:
		g.log.WithField("conn", cl.id).Errorf("join lobby %s failed: %v", payload.LobbyID, err)
		cl.sendError("Could not join lobby.")
		return
	}

	g.rooms.join(l.ID, cl)
	if err := g.sessions.Bind(opCtx, cl.id, l.ID); err != nil {
		g.log.WithField("conn", cl.id).Errorf("bind session failed: %v", err)
	}

	g.rooms.broadcast(l.ID, outbound{Event: EventLobbyState, Data: l})
}

func (g *Gateway) handleSetReady(ctx context.Context, cl *client, data json.RawMessage) {
	var payload setReadyPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.LobbyID == "" {
		cl.sendError("Invalid setReady payload")
		return
	}

	opCtx, cancel := g.opCtx(ctx)
	defer cancel()

	l, err := g.lobbies.SetReady(opCtx, payload.LobbyID, cl.id, payload.IsReady)
	if errors.Is(err, lobby.ErrNotFound) {
		// The original frontend silently dropped this case; an explicit error
		// is more useful to a client that believes it is in the lobby.
		cl.sendError("Lobby or player not found.")
		return
	}
	if err != nil {
		g.log.WithField("conn", cl.id).Errorf("setReady in lobby %s failed: %v", payload.LobbyID, err)
		cl.sendError("Could not update readiness.")
		return
	}

	g.rooms.broadcast(l.ID, outbound{Event: EventLobbyState, Data: l})
}

func (g *Gateway) handleStartGame(ctx context.Context, cl *client, data json.RawMessage) {
	var payload startGamePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.LobbyID == "" {
		cl.sendError("Invalid startGame payload")
		return
	}

	opCtx, cancel := g.opCtx(ctx)
	defer cancel()

	// Authorization and the readiness precondition live here, not in the
	// store: the store trusts its caller.
	l, err := g.lobbies.Get(opCtx, payload.LobbyID)
	if errors.Is(err, lobby.ErrNotFound) {
		cl.sendError("Lobby not found.")
		return
	}
	if err != nil {
		g.log.WithField("conn", cl.id).Errorf("load lobby %s failed: %v", payload.LobbyID, err)
		cl.sendError("Could not start game.")
		return
	}
	if l.HostID != cl.id {
		cl.sendError("Only the host can start the game.")
		return
	}
	if !l.AllReady() {
		cl.sendError("Not all players are ready.")
		return
	}

	started, err := g.lobbies.Start(opCtx, payload.LobbyID)
	if errors.Is(err, lobby.ErrStarted) {
		cl.sendError("Game already started.")
		return
	}
	if err != nil {
		g.log.WithField("conn", cl.id).Errorf("start lobby %s failed: %v", payload.LobbyID, err)
		cl.sendError("Could not start game.")
		return
	}

	// A distinct event, not the generic snapshot: this is the authoritative
	// start signal.
	g.rooms.broadcast(started.ID, outbound{Event: EventGameStarting, Data: started})
}

func (g *Gateway) handleLeaveLobby(ctx context.Context, cl *client, data json.RawMessage) {
	var payload leaveLobbyPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.LobbyID == "" {
		cl.sendError("Invalid leaveLobby payload")
		return
	}

	opCtx, cancel := g.opCtx(ctx)
	defer cancel()

	l, err := g.lobbies.RemovePlayer(opCtx, payload.LobbyID, cl.id)
	if err != nil && !errors.Is(err, lobby.ErrNotFound) {
		g.log.WithField("conn", cl.id).Errorf("leave lobby %s failed: %v", payload.LobbyID, err)
		cl.sendError("Could not leave lobby.")
		return
	}

	if err := g.sessions.Unbind(opCtx, cl.id); err != nil {
		g.log.WithField("conn", cl.id).Errorf("unbind session failed: %v", err)
	}

	if l != nil {
		g.rooms.broadcast(payload.LobbyID, outbound{Event: EventLobbyState, Data: l})
	}

	// The requester always gets a cleared snapshot, even if the lobby never
	// existed or was deleted.
	cl.send(outbound{Event: EventLobbyState, Data: nil})
	g.rooms.leave(payload.LobbyID, cl.id)
}

func (g *Gateway) handleGetLobbies(ctx context.Context, cl *client) {
	opCtx, cancel := g.opCtx(ctx)
	defer cancel()

	waiting, err := g.lobbies.ListWaiting(opCtx)
	if err != nil {
		g.log.WithField("conn", cl.id).Errorf("list lobbies failed: %v", err)
		cl.sendError("Could not list lobbies.")
		return
	}

	summaries := make([]lobby.Summary, 0, len(waiting))
	for _, l := range waiting {
		summaries = append(summaries, l.Summarize())
	}
	cl.send(outbound{Event: EventLobbiesList, Data: summaries})
}

// handleDisconnect resolves an abruptly closed connection to its lobby and
// removes the player, broadcasting the updated snapshot to whoever remains.
// The connection's own request context is gone by now, so cleanup runs on a
// fresh bounded context.
func (g *Gateway) handleDisconnect(cl *client) {
	opCtx, cancel := g.opCtx(context.Background())
	defer cancel()

	lobbyID, err := g.sessions.Resolve(opCtx, cl.id)
	if errors.Is(err, session.ErrNotFound) {
		return // never joined a lobby, nothing to clean up
	}
	if err != nil {
		g.log.WithField("conn", cl.id).Errorf("resolve session on disconnect failed: %v", err)
		return
	}

	l, err := g.lobbies.RemovePlayer(opCtx, lobbyID, cl.id)
	if err != nil && !errors.Is(err, lobby.ErrNotFound) {
		g.log.WithField("conn", cl.id).Errorf("remove player from lobby %s on disconnect failed: %v", lobbyID, err)
	}

	if err := g.sessions.Unbind(opCtx, cl.id); err != nil {
		g.log.WithField("conn", cl.id).Errorf("unbind session on disconnect failed: %v", err)
	}

	g.rooms.leave(lobbyID, cl.id)
	if l != nil {
		g.rooms.broadcast(lobbyID, outbound{Event: EventLobbyState, Data: l})
	}
}
