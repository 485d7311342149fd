package tokenstore

import (
	"context"
	"sync"
)

// Store holds the bearer token the realtime and OTP layers authenticate
// with. Implementations must be safe for concurrent use.
type Store interface {
	// Token returns the stored bearer token, or ErrNoToken when none is set.
	Token(ctx context.Context) (string, error)

	// SetToken replaces the stored token.
	SetToken(ctx context.Context, token string) error

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in process memory. Suitable for tests and for
// hosts that manage persistence themselves.
type MemoryStore struct {
	token string
	set   bool
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWithToken creates an in-memory store pre-loaded with token.
func NewMemoryStoreWithToken(token string) *MemoryStore {
	return &MemoryStore{token: token, set: true}
}

func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.set = true
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.set = false
	return nil
}
