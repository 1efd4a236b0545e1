// internal/session/directory.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/laststand/lobbyd/internal/cache"
)

// ErrNotFound indicates no binding exists for the connection (or it expired).
var ErrNotFound = errors.New("session: binding not found")

// DefaultTTL bounds how long a binding outlives a missed cleanup.
const DefaultTTL = time.Hour

// keyPrefix namespaces socket bindings in the shared store.
const keyPrefix = "socket:"

// Directory maps an ephemeral connection id to the lobby it belongs to, so
// abrupt disconnects can be resolved to a removal. Bindings carry a TTL as a
// self-healing measure, not an eviction policy.
type Directory struct {
	kv  cache.Store
	ttl time.Duration
}

// NewDirectory builds a Directory over the given key-value adapter. A zero
// ttl falls back to DefaultTTL.
func NewDirectory(kv cache.Store, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{kv: kv, ttl: ttl}
}

func key(connID string) string {
	return keyPrefix + connID
}

// Bind upserts the connection's lobby binding with the directory TTL.
func (d *Directory) Bind(ctx context.Context, connID, lobbyID string) error {
	if err := d.kv.Set(ctx, key(connID), lobbyID, d.ttl); err != nil {
		return fmt.Errorf("bind session %s: %w", connID, err)
	}
	return nil
}

// Resolve returns the lobby id bound to the connection, or ErrNotFound.
func (d *Directory) Resolve(ctx context.Context, connID string) (string, error) {
	lobbyID, err := d.kv.Get(ctx, key(connID))
	if errors.Is(err, cache.ErrMiss) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session %s: %w", connID, err)
	}
	return lobbyID, nil
}

// Unbind removes the binding. Unbinding an absent connection is a no-op.
func (d *Directory) Unbind(ctx context.Context, connID string) error {
	if err := d.kv.Del(ctx, key(connID)); err != nil {
		return fmt.Errorf("unbind session %s: %w", connID, err)
	}
	return nil
}
