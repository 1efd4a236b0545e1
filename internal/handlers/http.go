// internal/handlers/http.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/laststand/lobbyd/internal/auth"
	"github.com/laststand/lobbyd/internal/lobby"
)

// PingHandler is a trivial liveness endpoint.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}

// GuestTokenHandler issues an ephemeral guest token binding a display name to
// a generated guest id. The client passes the token in the WS handshake.
func GuestTokenHandler(log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}

		guestID := uuid.NewString()
		token, err := auth.CreateGuestToken(guestID, req.Name)
		if err != nil {
			log.Errorf("failed to create guest token: %v", err)
			http.Error(w, "could not issue token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"guestId": guestID,
			"token":   token,
		})
	}
}

// ListLobbiesHandler exposes the waiting-lobby listing over plain HTTP for
// dashboards and debugging. The WS getLobbies command serves clients.
func ListLobbiesHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opCtx, cancel := g.opCtx(r.Context())
		defer cancel()

		waiting, err := g.lobbies.ListWaiting(opCtx)
		if err != nil {
			g.log.Errorf("list lobbies failed: %v", err)
			http.Error(w, "could not list lobbies", http.StatusInternalServerError)
			return
		}

		summaries := make([]lobby.Summary, 0, len(waiting))
		for _, l := range waiting {
			summaries = append(summaries, l.Summarize())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}
