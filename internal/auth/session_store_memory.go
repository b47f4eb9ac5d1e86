package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{slots: make(map[string]string)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu    sync.Mutex
	slots map[string]string
}

// Put overwrites the account's refresh-token slot.
func (s *InMemorySessionStore) Put(_ context.Context, accountID, refreshToken string) error {
	s.mu.Lock()
	s.slots[accountID] = refreshToken
	s.mu.Unlock()
	return nil
}

// Swap replaces the slot value only when the presented token matches it.
func (s *InMemorySessionStore) Swap(_ context.Context, accountID, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.slots[accountID]
	if !ok {
		return ErrSessionNotFound
	}
	if current != presented {
		return ErrTokenMismatch
	}
	s.slots[accountID] = next
	return nil
}

// Clear removes the account's slot.
func (s *InMemorySessionStore) Clear(_ context.Context, accountID string) error {
	s.mu.Lock()
	delete(s.slots, accountID)
	s.mu.Unlock()
	return nil
}

// Current reports the slot value for an account. Useful for tests.
func (s *InMemorySessionStore) Current(accountID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.slots[accountID]
	return token, ok
}
