package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-pkce-client/internal/config"
	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"gorm.io/gorm"
)

// ErrTokenNotFound is returned by Load when nothing is stored for the user.
var ErrTokenNotFound = fmt.Errorf("token set %w", srverrors.ErrNotFound)

// Store persists one token set per user. Implementations must not share memory with callers.
type Store interface {
	Load(ctx context.Context, userID string) (*oauthmodel.TokenSet, error)
	Save(ctx context.Context, userID string, ts *oauthmodel.TokenSet) error
}

// NewStore builds the store selected by TOKEN_STORE. db is only used by the sql store.
func NewStore(kind string, db *gorm.DB) (Store, error) {
	switch kind {
	case "", config.TokenStoreMemory:
		return NewInMemoryStore(), nil
	case config.TokenStoreSQL:
		if db == nil {
			return nil, errors.New("[token.NewStore] sql token store needs a database")
		}
		return NewGormStore(db)
	case config.TokenStoreKeyring:
		return NewKeyringStore()
	}
	return nil, srverrors.Wrapf(srverrors.ErrUnknownStore, "[token.NewStore] %q", kind)
}
