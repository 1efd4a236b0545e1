// internal/cache/memory_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeysAndMGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "lobby:AAAAA", "a", 0))
	require.NoError(t, m.Set(ctx, "lobby:BBBBB", "b", 0))
	require.NoError(t, m.Set(ctx, "socket:1234", "AAAAA", 0))

	keys, err := m.Keys(ctx, "lobby:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lobby:AAAAA", "lobby:BBBBB"}, keys)

	vals, err := m.MGet(ctx, "lobby:AAAAA", "lobby:MISSING", "lobby:BBBBB")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	require.NotNil(t, vals[0])
	assert.Equal(t, "a", *vals[0])
	assert.Nil(t, vals[1])
	require.NotNil(t, vals[2])
	assert.Equal(t, "b", *vals[2])
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "socket:1", "AAAAA", 10*time.Millisecond))

	ok, err := m.Exists(ctx, "socket:1")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(25 * time.Millisecond)

	ok, err = m.Exists(ctx, "socket:1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Get(ctx, "socket:1")
	assert.ErrorIs(t, err, ErrMiss)
}
