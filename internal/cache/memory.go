// internal/cache/memory.go
package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and local single-node runs.
// TTLs are honored lazily: expired entries are dropped when next touched.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) live(e memoryEntry) bool {
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if !m.live(e) {
		delete(m.entries, key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if err == ErrMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k, e := range m.entries {
		if !m.live(e) {
			delete(m.entries, k)
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *Memory) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	out := make([]*string, len(keys))
	for i, k := range keys {
		val, err := m.Get(ctx, k)
		if err == ErrMiss {
			continue
		}
		if err != nil {
			return nil, err
		}
		v := val
		out[i] = &v
	}
	return out, nil
}
