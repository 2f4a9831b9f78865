package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/zalando/go-keyring"
)

// keyringService is the service name used in the system keychain.
const keyringService = "go-pkce-client"

// KeyringStore stores token sets in the system keychain as JSON, keyed by user id.
type KeyringStore struct {
	mu sync.RWMutex
}

// NewKeyringStore returns an error if the keyring is not available.
func NewKeyringStore() (*KeyringStore, error) {
	_, err := keyring.Get(keyringService, "_test_availability")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	return &KeyringStore{}, nil
}

func (s *KeyringStore) Load(_ context.Context, userID string) (*oauthmodel.TokenSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := keyring.Get(keyringService, userID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("[KeyringStore.Load] keyring get: %w", err)
	}

	var ts oauthmodel.TokenSet
	if err := json.Unmarshal([]byte(data), &ts); err != nil {
		return nil, fmt.Errorf("[KeyringStore.Load] parse token set: %w", err)
	}
	return &ts, nil
}

func (s *KeyringStore) Save(_ context.Context, userID string, ts *oauthmodel.TokenSet) error {
	if userID == "" {
		return srverrors.Wrapf(srverrors.ErrEmptyKey, "[KeyringStore.Save] user id")
	}
	if ts == nil {
		return srverrors.ErrNilValue
	}

	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("[KeyringStore.Save] marshal token set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := keyring.Set(keyringService, userID, string(data)); err != nil {
		return fmt.Errorf("[KeyringStore.Save] keyring set: %w", err)
	}
	return nil
}
