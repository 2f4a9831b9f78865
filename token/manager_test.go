package token_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/token"
	"github.com/stretchr/testify/require"
)

// fakeRefresher returns a fixed response and counts calls.
type fakeRefresher struct {
	calls     atomic.Int32
	presented atomic.Value
	response  *oauthmodel.TokenSet
	err       error
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*oauthmodel.TokenSet, error) {
	f.calls.Add(1)
	f.presented.Store(refreshToken)
	if f.err != nil {
		return nil, f.err
	}
	return f.response.Clone(), nil
}

func expiringTokenSet() *oauthmodel.TokenSet {
	return &oauthmodel.TokenSet{
		AccessToken:  "t1",
		RefreshToken: "r0",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		Scope:        "accounts:read",
		IssuedAt:     fixedNow.Add(-3590 * time.Second),
	}
}

func newManager(t *testing.T, refresher token.Refresher, ts *oauthmodel.TokenSet, options ...token.ManagerOption) (*token.Manager, token.Store) {
	t.Helper()
	store := token.NewInMemoryStore()
	if ts != nil {
		require.NoError(t, store.Save(context.Background(), "user-1", ts))
	}
	options = append([]token.ManagerOption{token.WithManagerNowTime(func() time.Time { return fixedNow })}, options...)
	return token.NewManager(refresher, store, options...), store
}

func TestManager_Token(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh token is returned without refresh", func(t *testing.T) {
		refresher := &fakeRefresher{}
		fresh := expiringTokenSet()
		fresh.IssuedAt = fixedNow
		manager, _ := newManager(t, refresher, fresh)

		ts, err := manager.Token(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "t1", ts.AccessToken)
		require.Zero(t, refresher.calls.Load())
	})

	t.Run("expiring token is refreshed and saved", func(t *testing.T) {
		refresher := &fakeRefresher{response: &oauthmodel.TokenSet{AccessToken: "t2", ExpiresIn: 3600, IssuedAt: fixedNow}}
		manager, store := newManager(t, refresher, expiringTokenSet())

		ts, err := manager.Token(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "t2", ts.AccessToken)
		require.Equal(t, "r0", ts.RefreshToken)
		require.Equal(t, "accounts:read", ts.Scope)
		require.Equal(t, "r0", refresher.presented.Load())

		saved, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "t2", saved.AccessToken)
		require.Equal(t, "r0", saved.RefreshToken)
	})

	t.Run("drop policy forgets spent refresh token", func(t *testing.T) {
		refresher := &fakeRefresher{response: &oauthmodel.TokenSet{AccessToken: "t2", ExpiresIn: 3600, IssuedAt: fixedNow}}
		manager, store := newManager(t, refresher, expiringTokenSet(), token.WithRotationPolicy(token.DropOnAbsent))

		_, err := manager.Token(ctx, "user-1")
		require.NoError(t, err)

		saved, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		require.Empty(t, saved.RefreshToken)

		_, err = manager.ForceRefresh(ctx, "user-1")
		require.ErrorIs(t, err, token.ErrNoRefreshToken)
	})

	t.Run("rotated refresh token is stored", func(t *testing.T) {
		refresher := &fakeRefresher{response: &oauthmodel.TokenSet{AccessToken: "t2", RefreshToken: "r1", ExpiresIn: 3600, IssuedAt: fixedNow}}
		manager, store := newManager(t, refresher, expiringTokenSet())

		_, err := manager.Token(ctx, "user-1")
		require.NoError(t, err)

		saved, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "r1", saved.RefreshToken)
	})

	t.Run("failed refresh leaves store untouched", func(t *testing.T) {
		refresher := &fakeRefresher{err: &oauthmodel.ProviderError{Status: http.StatusBadRequest, Code: "invalid_grant"}}
		manager, store := newManager(t, refresher, expiringTokenSet())

		_, err := manager.Token(ctx, "user-1")
		var providerErr *oauthmodel.ProviderError
		require.ErrorAs(t, err, &providerErr)
		require.Equal(t, "invalid_grant", providerErr.Code)

		saved, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "t1", saved.AccessToken)
		require.Equal(t, "r0", saved.RefreshToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		manager, _ := newManager(t, &fakeRefresher{}, nil)

		_, err := manager.Token(ctx, "user-1")
		require.ErrorIs(t, err, token.ErrTokenNotFound)
	})

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		refresher := &fakeRefresher{response: &oauthmodel.TokenSet{AccessToken: "t2", RefreshToken: "r1", ExpiresIn: 3600, IssuedAt: fixedNow}}
		manager, _ := newManager(t, refresher, expiringTokenSet())

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ts, err := manager.Token(ctx, "user-1")
				if err == nil && ts.AccessToken != "t2" {
					t.Errorf("unexpected access token %q", ts.AccessToken)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), refresher.calls.Load())
	})
}

func TestManager_ForceRefresh(t *testing.T) {
	refresher := &fakeRefresher{response: &oauthmodel.TokenSet{AccessToken: "t2", ExpiresIn: 3600, IssuedAt: fixedNow}}
	fresh := expiringTokenSet()
	fresh.IssuedAt = fixedNow
	manager, _ := newManager(t, refresher, fresh)

	ts, err := manager.ForceRefresh(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "t2", ts.AccessToken)
	require.Equal(t, int32(1), refresher.calls.Load())
}

func TestManager_Save(t *testing.T) {
	manager, store := newManager(t, &fakeRefresher{}, nil)
	require.NoError(t, manager.Save(context.Background(), "user-1", testTokenSet()))

	saved, err := store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "t1", saved.AccessToken)
}
