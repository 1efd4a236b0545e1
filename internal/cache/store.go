// internal/cache/store.go
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indicates the requested key does not exist (or has expired).
var ErrMiss = errors.New("cache: key not found")

// Store is the thin adapter over the shared key-value store. It is the single
// source of truth for lobby records and socket->lobby bindings; multiple
// gateway processes may share one Store, so nothing above this layer may cache
// values across requests.
type Store interface {
	// Get returns the value at key, or ErrMiss if absent.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value at key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys enumerates keys matching a glob pattern, e.g. "lobby:*".
	Keys(ctx context.Context, pattern string) ([]string, error)
	// MGet bulk-fetches values; absent keys yield nil entries.
	MGet(ctx context.Context, keys ...string) ([]*string, error)
}
