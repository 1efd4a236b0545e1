// internal/handlers/http_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laststand/lobbyd/internal/auth"
	"github.com/laststand/lobbyd/internal/lobby"
)

func TestGuestTokenHandler(t *testing.T) {
	require.NoError(t, auth.Init())
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	req := httptest.NewRequest("POST", "/auth/guest", bytes.NewBufferString(`{"name":"Alice"}`))
	w := httptest.NewRecorder()
	GuestTokenHandler(logger).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	require.NotEmpty(t, resp["guestId"])

	guestID, name, err := auth.Authenticate(resp["token"])
	require.NoError(t, err)
	assert.Equal(t, resp["guestId"], guestID)
	assert.Equal(t, "Alice", name)
}

func TestGuestTokenHandlerRejectsMissingName(t *testing.T) {
	require.NoError(t, auth.Init())
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	req := httptest.NewRequest("POST", "/auth/guest", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	GuestTokenHandler(logger).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLobbiesHandler(t *testing.T) {
	g := newTestGateway(t)
	host := newTestClient("host-conn")
	createLobby(t, g, host, "Alice")

	req := httptest.NewRequest("GET", "/lobbies", nil)
	w := httptest.NewRecorder()
	ListLobbiesHandler(g).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summaries []lobby.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Alice", summaries[0].Name)
	assert.Equal(t, 1, summaries[0].Players)
}
