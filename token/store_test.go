package token_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-pkce-client/internal/config"
	"github.com/jrsteele09/go-pkce-client/internal/database"
	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/token"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func storeFactories() map[string]func(t *testing.T) token.Store {
	return map[string]func(t *testing.T) token.Store{
		"inmemory": func(t *testing.T) token.Store {
			return token.NewInMemoryStore()
		},
		"gorm-sqlite": func(t *testing.T) token.Store {
			t.Helper()
			db, err := database.Open(config.StoreDriverSQLite, ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close(db) })

			store, err := token.NewGormStore(db)
			require.NoError(t, err)
			return store
		},
		"keyring": func(t *testing.T) token.Store {
			t.Helper()
			keyring.MockInit()
			store, err := token.NewKeyringStore()
			require.NoError(t, err)
			return store
		},
	}
}

func testTokenSet() *oauthmodel.TokenSet {
	return &oauthmodel.TokenSet{
		AccessToken:  "t1",
		RefreshToken: "r1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		Scope:        "accounts:read",
		IssuedAt:     fixedNow,
	}
}

func TestStore(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("load missing", func(t *testing.T) {
				_, err := newStore(t).Load(ctx, "nobody")
				require.ErrorIs(t, err, token.ErrTokenNotFound)
				require.ErrorIs(t, err, srverrors.ErrNotFound)
			})

			t.Run("save then load", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Save(ctx, "user-1", testTokenSet()))

				got, err := store.Load(ctx, "user-1")
				require.NoError(t, err)
				require.Equal(t, "t1", got.AccessToken)
				require.Equal(t, "r1", got.RefreshToken)
				require.Equal(t, "Bearer", got.TokenType)
				require.Equal(t, int64(3600), got.ExpiresIn)
				require.Equal(t, "accounts:read", got.Scope)
				require.True(t, got.IssuedAt.Equal(fixedNow))
			})

			t.Run("save overwrites", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Save(ctx, "user-1", testTokenSet()))

				updated := testTokenSet()
				updated.AccessToken = "t2"
				updated.RefreshToken = ""
				require.NoError(t, store.Save(ctx, "user-1", updated))

				got, err := store.Load(ctx, "user-1")
				require.NoError(t, err)
				require.Equal(t, "t2", got.AccessToken)
				require.Empty(t, got.RefreshToken)
			})

			t.Run("users are independent", func(t *testing.T) {
				store := newStore(t)
				require.NoError(t, store.Save(ctx, "user-1", testTokenSet()))

				_, err := store.Load(ctx, "user-2")
				require.ErrorIs(t, err, token.ErrTokenNotFound)
			})

			t.Run("validation", func(t *testing.T) {
				store := newStore(t)
				require.ErrorIs(t, store.Save(ctx, "", testTokenSet()), srverrors.ErrEmptyKey)
				require.ErrorIs(t, store.Save(ctx, "user-1", nil), srverrors.ErrNilValue)
			})

			t.Run("does not share memory", func(t *testing.T) {
				store := newStore(t)
				ts := testTokenSet()
				require.NoError(t, store.Save(ctx, "user-1", ts))
				ts.AccessToken = "mutated"

				got, err := store.Load(ctx, "user-1")
				require.NoError(t, err)
				require.Equal(t, "t1", got.AccessToken)
				got.AccessToken = "mutated again"

				again, err := store.Load(ctx, "user-1")
				require.NoError(t, err)
				require.Equal(t, "t1", again.AccessToken)
			})
		})
	}
}

func TestNewStore(t *testing.T) {
	store, err := token.NewStore(config.TokenStoreMemory, nil)
	require.NoError(t, err)
	require.IsType(t, &token.InMemoryStore{}, store)

	_, err = token.NewStore(config.TokenStoreSQL, nil)
	require.Error(t, err)

	keyring.MockInit()
	store, err = token.NewStore(config.TokenStoreKeyring, nil)
	require.NoError(t, err)
	require.IsType(t, &token.KeyringStore{}, store)

	_, err = token.NewStore("redis", nil)
	require.ErrorIs(t, err, srverrors.ErrUnknownStore)
}
