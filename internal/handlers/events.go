// internal/handlers/events.go
package handlers

import "encoding/json"

// Client->server event names.
const (
	EventCreateLobby = "createLobby"
	EventJoinLobby   = "joinLobby"
	EventSetReady    = "setReady"
	EventStartGame   = "startGame"
	EventLeaveLobby  = "leaveLobby"
	EventGetLobbies  = "getLobbies"
)

// Server->client event names.
const (
	EventLobbyState   = "lobbyState"
	EventLobbiesList  = "lobbiesList"
	EventGameStarting = "gameStarting"
	EventError        = "error"
)

// Envelope is the wire frame for both directions: an event name plus a
// structured payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound is a server->client event queued for a connection's write pump,
// which marshals it into an Envelope.
type outbound struct {
	Event string
	Data  interface{}
}

type createLobbyPayload struct {
	Name string `json:"name"`
}

type joinLobbyPayload struct {
	LobbyID string `json:"lobbyId"`
	Name    string `json:"name,omitempty"`
}

type setReadyPayload struct {
	LobbyID string `json:"lobbyId"`
	IsReady bool   `json:"isReady"`
}

type startGamePayload struct {
	LobbyID string `json:"lobbyId"`
}

type leaveLobbyPayload struct {
	LobbyID string `json:"lobbyId"`
}

type errorPayload struct {
	Message string `json:"message"`
}
