// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateGuestToken("guest-1", "Alice")
	require.NoError(t, err)

	guestID, name, err := Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", guestID)
	assert.Equal(t, "Alice", name)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	require.NoError(t, Init())

	_, _, err := Authenticate("not-a-token")
	assert.Error(t, err)
}

func TestTokensInvalidAfterKeyRotation(t *testing.T) {
	require.NoError(t, Init())
	token, err := CreateGuestToken("guest-1", "Alice")
	require.NoError(t, err)

	// A restart generates fresh keys; outstanding tokens must not verify.
	require.NoError(t, Init())
	_, _, err = Authenticate(token)
	assert.Error(t, err)
}
