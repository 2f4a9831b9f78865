package token

import (
	"context"
	"sync"

	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
)

// InMemoryStore is a thread-safe in-memory implementation of the Store interface
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauthmodel.TokenSet
}

// NewInMemoryStore creates a new in-memory token store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]*oauthmodel.TokenSet),
	}
}

func (s *InMemoryStore) Load(_ context.Context, userID string) (*oauthmodel.TokenSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, exists := s.tokens[userID]
	if !exists {
		return nil, ErrTokenNotFound
	}
	return ts.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, userID string, ts *oauthmodel.TokenSet) error {
	if userID == "" {
		return srverrors.Wrapf(srverrors.ErrEmptyKey, "[InMemoryStore.Save] user id")
	}
	if ts == nil {
		return srverrors.ErrNilValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = ts.Clone()
	return nil
}
