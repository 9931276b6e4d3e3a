// internal/session/store.go
//
// In-memory implementation of the session Store.
//
// Characteristics:
//   - Sessions are keyed by player identity; one record per player.
//   - Values are copied in and out, so a caller only changes stored state through Save.
//   - Concurrency-safe via RWMutex (the HTTP state query reads while the host writes).
//   - State is lost when the process restarts.

package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/robalobadob/wordle-session/internal/actor"
)

// ErrNotFound is returned by Get when a player has no session (implicit Init).
var ErrNotFound = errors.New("session: not found")

// Entry pairs a player with their session.
type Entry struct {
	Player  actor.ID
	Session Session
}

// Store defines the persistence interface for sessions.
type Store interface {
	// Get retrieves the player's session or ErrNotFound.
	Get(ctx context.Context, player actor.ID) (Session, error)

	// Save persists or updates the player's session.
	Save(ctx context.Context, player actor.ID, s Session) error

	// List returns every session, ordered by player.
	List(ctx context.Context) ([]Entry, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[actor.ID]Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[actor.ID]Session)}
}

func (m *memory) Get(ctx context.Context, player actor.ID) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[player]; ok {
		return s, nil
	}
	return Session{}, ErrNotFound
}

func (m *memory) Save(ctx context.Context, player actor.ID, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[player] = s
	return nil
}

func (m *memory) List(ctx context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.sessions))
	for p, s := range m.sessions {
		out = append(out, Entry{Player: p, Session: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out, nil
}
