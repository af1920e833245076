// Package session holds the browser-session machinery: the signed
// session cookie and the durable token store that keeps the upstream
// bearer token between requests. Presence of a token is the sole gate
// between the authentication views and the main application.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned when no token exists for a session ID.
var ErrNoSession = errors.New("session: no token stored")

// TokenStore persists one opaque bearer token per browser session.
type TokenStore interface {
	Set(ctx context.Context, sessionID, token string) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore is an in-process TokenStore used in tests and in
// development without Redis. Tokens expire after the configured TTL.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore builds a MemoryStore with the given session TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Set(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{token: token, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNoSession
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return "", ErrNoSession
	}
	return entry.token, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
