// internal/store/memory.go
//
// In-memory implementation of the round session Store.
// Rounds are ephemeral: they live here while being played and are lost on restart
// (finished rounds are recorded in SQLite by the HTTP layer).
//
// Characteristics:
//   - Stores *game.Round objects keyed by ID in a map.
//   - Update runs its callback under the write lock, which serializes every
//     mutation of a round; a game.Round itself is not safe for concurrent use.
//   - ErrNotFound is returned for unknown IDs.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/weinianhe/SaveGramps/internal/game"
)

// ErrNotFound is returned when no round has the requested ID.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for round sessions.
type Store interface {
	// Save persists or replaces a round.
	Save(ctx context.Context, r *game.Round) error

	// Get retrieves a round by ID. The returned round must only be read.
	Get(ctx context.Context, id string) (*game.Round, error)

	// Update runs fn with exclusive access to the round and returns fn's error.
	Update(ctx context.Context, id string, fn func(*game.Round) error) error

	// Delete drops a round; deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex           // guards rounds and their contents
	rounds map[string]*game.Round // keyed by Round.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*game.Round)}
}

func (m *memory) Save(ctx context.Context, r *game.Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.ID()] = r
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rounds[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Round) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	if !ok {
		return ErrNotFound
	}
	return fn(r)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, id)
	return nil
}
