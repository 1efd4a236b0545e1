// internal/lobby/lobby.go
package lobby

// Status is the lifecycle state of a lobby. The only transition is
// StatusWaiting -> StatusInGame; there is no path back.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusInGame  Status = "in-game"
)

// MaxPlayers bounds lobby membership. Joins beyond this are rejected.
const MaxPlayers = 10

// Player is a lobby member. Its identity is the connection id of the
// underlying socket; the player ceases to exist when that connection closes
// or leaves explicitly.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsReady bool   `json:"isReady"`
}

// Lobby is a named room grouping players before a game session begins.
// The serialized form is exactly the snapshot broadcast to clients.
type Lobby struct {
	ID      string             `json:"id"`
	HostID  string             `json:"hostId"`
	Players map[string]*Player `json:"players"`
	Status  Status             `json:"status"`
}

// Size returns the current member count.
func (l *Lobby) Size() int {
	return len(l.Players)
}

// HasPlayer reports whether id is a member.
func (l *Lobby) HasPlayer(id string) bool {
	_, ok := l.Players[id]
	return ok
}

// AllReady reports whether every member has toggled ready.
func (l *Lobby) AllReady() bool {
	for _, p := range l.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// Summary is the projection served to lobby browsers: the short code, a
// display name derived from one member, and the member count.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// Summarize projects the lobby for listing. The display name is the host's
// name when present, else any member's.
func (l *Lobby) Summarize() Summary {
	name := ""
	if host, ok := l.Players[l.HostID]; ok {
		name = host.Name
	} else {
		for _, p := range l.Players {
			name = p.Name
			break
		}
	}
	return Summary{ID: l.ID, Name: name, Players: l.Size()}
}
