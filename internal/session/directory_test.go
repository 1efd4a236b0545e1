// internal/session/directory_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laststand/lobbyd/internal/cache"
)

func TestBindResolveUnbind(t *testing.T) {
	d := NewDirectory(cache.NewMemory(), 0)
	ctx := context.Background()

	require.NoError(t, d.Bind(ctx, "conn-1", "ABCDE"))

	lobbyID, err := d.Resolve(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", lobbyID)

	require.NoError(t, d.Unbind(ctx, "conn-1"))

	_, err = d.Resolve(ctx, "conn-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBindOverwrites(t *testing.T) {
	d := NewDirectory(cache.NewMemory(), 0)
	ctx := context.Background()

	require.NoError(t, d.Bind(ctx, "conn-1", "AAAAA"))
	require.NoError(t, d.Bind(ctx, "conn-1", "BBBBB"))

	lobbyID, err := d.Resolve(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "BBBBB", lobbyID)
}

func TestUnbindAbsentIsIdempotent(t *testing.T) {
	d := NewDirectory(cache.NewMemory(), 0)

	assert.NoError(t, d.Unbind(context.Background(), "never-bound"))
}

func TestBindingExpires(t *testing.T) {
	d := NewDirectory(cache.NewMemory(), 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, d.Bind(ctx, "conn-1", "ABCDE"))
	time.Sleep(25 * time.Millisecond)

	_, err := d.Resolve(ctx, "conn-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
