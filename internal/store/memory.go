// internal/store/memory.go
//
// In-memory registry of live game sessions and their score screens.
// State is lost when the process restarts.
//
// Characteristics:
//   - Sessions and score results keyed by session ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Delete disposes the session so its timer stops.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/guesstheword/internal/game"
)

// ErrNotFound is returned when no entry exists for an ID.
var ErrNotFound = errors.New("not found")

// Store holds sessions for the presentation adapters.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete disposes and forgets a session and its score result.
	Delete(ctx context.Context, id string) error

	// SaveScore attaches the score screen state to a session ID.
	SaveScore(ctx context.Context, id string, r *game.ScoreResult) error

	// GetScore retrieves the score screen state for a session ID.
	GetScore(ctx context.Context, id string) (*game.ScoreResult, error)

	// Len reports how many sessions are held.
	Len() int

	// Sweep disposes and forgets every session saved before cutoff.
	// Returns how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	scores   map[string]*game.ScoreResult
	savedAt  map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		sessions: make(map[string]*game.Session),
		scores:   make(map[string]*game.ScoreResult),
		savedAt:  make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.sessions[s.ID()]
	if ok && old == s {
		return nil
	}
	if ok {
		old.Dispose()
	}
	m.sessions[s.ID()] = s
	m.savedAt[s.ID()] = m.now()
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	delete(m.scores, id)
	delete(m.savedAt, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Dispose()
	return nil
}

func (m *memory) SaveScore(ctx context.Context, id string, r *game.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	m.scores[id] = r
	return nil
}

func (m *memory) GetScore(ctx context.Context, id string) (*game.ScoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.scores[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	var stale []*game.Session
	for id, at := range m.savedAt {
		if !at.Before(cutoff) {
			continue
		}
		stale = append(stale, m.sessions[id])
		delete(m.sessions, id)
		delete(m.scores, id)
		delete(m.savedAt, id)
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Dispose()
	}
	return len(stale)
}
