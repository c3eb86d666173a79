package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-training/social-relay/pkg/core"
)

var (
	// ErrSessionNotFound is returned when a session is missing or has expired.
	ErrSessionNotFound = core.ErrSessionNotFound
	// ErrNilSession is returned when attempting to save a nil session.
	ErrNilSession = errors.New("session cannot be nil")
	// ErrEmptySessionID is returned when the session ID string is empty.
	ErrEmptySessionID = errors.New("session ID cannot be empty")
	// ErrInvalidTTL is returned when a session is saved with a non-positive TTL.
	ErrInvalidTTL = errors.New("session TTL must be positive")
)

type memoryEntry struct {
	session   *core.Session
	expiresAt time.Time
}

// MemoryStore implements core.SessionStore using an in-memory map.
// Sessions are copied on the way in and out so callers never share state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// GetSession retrieves a session by ID.
// It returns ErrSessionNotFound if the session does not exist or has expired.
func (m *MemoryStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.sessions[id]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	return entry.session.Clone(), nil
}

// SaveSession upserts a session and resets its expiry to now+ttl.
func (m *MemoryStore) SaveSession(ctx context.Context, sess *core.Session, ttl time.Duration) error {
	if sess == nil {
		return ErrNilSession
	}
	if sess.ID == "" {
		return ErrEmptySessionID
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.ID] = memoryEntry{
		session:   sess.Clone(),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// DeleteSession removes a session by ID.
func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() {}
