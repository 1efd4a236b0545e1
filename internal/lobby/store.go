// internal/lobby/store.go
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/laststand/lobbyd/internal/cache"
)

// Sentinel results for store operations. Callers distinguish these so the
// gateway can report precise failures without re-querying the store.
var (
	// ErrNotFound indicates the lobby (or the addressed player) does not exist.
	ErrNotFound = errors.New("lobby: not found")
	// ErrFull indicates the lobby is at MaxPlayers.
	ErrFull = errors.New("lobby: full")
	// ErrStarted indicates the lobby already left the waiting state.
	ErrStarted = errors.New("lobby: already started")
)

// codeLength is the length of generated lobby codes. The code space
// (~64^5) makes collisions astronomically rare, but Create still verifies
// against the store and retries.
const codeLength = 5

// keyPrefix namespaces lobby records in the shared store.
const keyPrefix = "lobby:"

// Store is the lobby state machine over the shared key-value store. Every
// operation is a full read-modify-write round trip: the store is the sole
// authority and may be shared by multiple gateway processes, so no lobby
// state is cached across requests.
//
// Mutations on the same lobby id are serialized within this process by a
// keyed mutex. Concurrent writers in *other* processes still race
// last-writer-wins against the shared store; see DESIGN.md.
type Store struct {
	kv  cache.Store
	log *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// newCode generates candidate lobby codes. Overridable in tests to
	// force collisions.
	newCode func() (string, error)
}

// NewStore builds a Store over the given key-value adapter.
func NewStore(kv cache.Store, log *logrus.Logger) *Store {
	return &Store{
		kv:    kv,
		log:   log,
		locks: make(map[string]*sync.Mutex),
		newCode: func() (string, error) {
			id, err := gonanoid.New(codeLength)
			if err != nil {
				return "", err
			}
			return strings.ToUpper(id), nil
		},
	}
}

func key(id string) string {
	return keyPrefix + id
}

// lockFor returns the per-lobby mutex, creating it on first use. Lock entries
// are never removed; the set of ids seen by one process stays small.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) load(ctx context.Context, id string) (*Lobby, error) {
	raw, err := s.kv.Get(ctx, key(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lobby %s: %w", id, err)
	}
	var l Lobby
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("decode lobby %s: %w", id, err)
	}
	return &l, nil
}

func (s *Store) persist(ctx context.Context, l *Lobby) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode lobby %s: %w", l.ID, err)
	}
	if err := s.kv.Set(ctx, key(l.ID), string(raw), 0); err != nil {
		return fmt.Errorf("persist lobby %s: %w", l.ID, err)
	}
	return nil
}

// Get fetches and deserializes a lobby, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Lobby, error) {
	return s.load(ctx, id)
}

// Create persists a new waiting lobby hosted by host. Candidate codes are
// drawn until one is unused in the store: the loop has no retry cap, since a
// collision only costs one extra round trip.
func (s *Store) Create(ctx context.Context, host Player) (*Lobby, error) {
	var id string
	for {
		candidate, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate lobby code: %w", err)
		}
		exists, err := s.kv.Exists(ctx, key(candidate))
		if err != nil {
			return nil, fmt.Errorf("check lobby code %s: %w", candidate, err)
		}
		if !exists {
			id = candidate
			break
		}
		s.log.WithField("code", candidate).Warn("lobby code collision, regenerating")
	}

	l := &Lobby{
		ID:      id,
		HostID:  host.ID,
		Players: map[string]*Player{host.ID: &host},
		Status:  StatusWaiting,
	}
	if err := s.persist(ctx, l); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"lobby": id, "host": host.ID}).Info("lobby created")
	return l, nil
}

// Join inserts player into the lobby. Rejoining is idempotent: the lobby is
// returned unchanged and nothing is written. A lobby at MaxPlayers returns
// ErrFull.
func (s *Store) Join(ctx context.Context, id string, player Player) (*Lobby, error) {
	lk := s.lockFor(id)
	lk.Lock()
	defer lk.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.HasPlayer(player.ID) {
		return l, nil
	}
	if l.Size() >= MaxPlayers {
		return nil, ErrFull
	}

	l.Players[player.ID] = &player
	if err := s.persist(ctx, l); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"lobby": id, "player": player.ID}).Info("player joined")
	return l, nil
}

// RemovePlayer removes playerID from the lobby. Removing the last member
// deletes the record and returns (nil, nil) -- the lobby is gone. Removing
// the host hands the lobby to another member before persisting. An unknown
// player returns the lobby unchanged.
func (s *Store) RemovePlayer(ctx context.Context, id, playerID string) (*Lobby, error) {
	lk := s.lockFor(id)
	lk.Lock()
	defer lk.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.HasPlayer(playerID) {
		return l, nil
	}

	delete(l.Players, playerID)

	if l.Size() == 0 {
		if err := s.kv.Del(ctx, key(id)); err != nil {
			return nil, fmt.Errorf("delete lobby %s: %w", id, err)
		}
		s.log.WithField("lobby", id).Info("lobby emptied, record deleted")
		return nil, nil
	}

	if l.HostID == playerID {
		// Membership order carries no meaning; pick the lowest id so the
		// handoff is deterministic.
		ids := make([]string, 0, len(l.Players))
		for pid := range l.Players {
			ids = append(ids, pid)
		}
		sort.Strings(ids)
		l.HostID = ids[0]
		s.log.WithFields(logrus.Fields{"lobby": id, "host": l.HostID}).Info("host reassigned")
	}

	if err := s.persist(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SetReady flags playerID's readiness. ErrNotFound covers both a missing
// lobby and a missing player.
func (s *Store) SetReady(ctx context.Context, id, playerID string, ready bool) (*Lobby, error) {
	lk := s.lockFor(id)
	lk.Lock()
	defer lk.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p, ok := l.Players[playerID]
	if !ok {
		return nil, ErrNotFound
	}

	p.IsReady = ready
	if err := s.persist(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Start flips the lobby into StatusInGame. The transition is one-way: a lobby
// already out of StatusWaiting returns ErrStarted. Host authorization and the
// all-ready check stay with the caller.
func (s *Store) Start(ctx context.Context, id string) (*Lobby, error) {
	lk := s.lockFor(id)
	lk.Lock()
	defer lk.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusWaiting {
		return nil, ErrStarted
	}

	l.Status = StatusInGame
	if err := s.persist(ctx, l); err != nil {
		return nil, err
	}
	s.log.WithField("lobby", id).Info("game starting")
	return l, nil
}

// ListWaiting enumerates all persisted lobbies still in StatusWaiting. Keys
// that vanish between the scan and the bulk fetch are skipped; a record that
// fails to decode is logged and skipped rather than failing the listing.
func (s *Store) ListWaiting(ctx context.Context) ([]*Lobby, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan lobbies: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.kv.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("fetch lobbies: %w", err)
	}

	var out []*Lobby
	for i, raw := range vals {
		if raw == nil {
			continue
		}
		var l Lobby
		if err := json.Unmarshal([]byte(*raw), &l); err != nil {
			s.log.WithField("key", keys[i]).WithError(err).Warn("skipping malformed lobby record")
			continue
		}
		if l.Status == StatusWaiting {
			out = append(out, &l)
		}
	}
	return out, nil
}
