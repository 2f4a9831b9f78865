package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/rs/zerolog/log"
)

// ErrNoRefreshToken means the stored token set cannot be refreshed and the user must authorize again.
var ErrNoRefreshToken = errors.New("no refresh token available")

// Refresher is the part of Client the Manager needs.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenSet, error)
}

// Manager hands out usable access tokens for a user, refreshing through the token endpoint
// when the stored one is about to expire.
type Manager struct {
	refresher Refresher
	store     Store
	policy    RotationPolicy
	skew      time.Duration
	nowTime   func() time.Time

	// refreshes for one user are serialised so a rotating provider never sees the same
	// refresh token twice
	locks sync.Map
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithRotationPolicy sets how refresh responses without a refresh_token are handled.
func WithRotationPolicy(policy RotationPolicy) ManagerOption {
	return func(m *Manager) {
		m.policy = policy
	}
}

// WithExpirySkew sets how early before expiry a token is refreshed.
func WithExpirySkew(skew time.Duration) ManagerOption {
	return func(m *Manager) {
		m.skew = skew
	}
}

// WithManagerNowTime sets the now time function (primarily for testing)
func WithManagerNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager creates a token manager over a refresher and a store.
func NewManager(refresher Refresher, store Store, options ...ManagerOption) *Manager {
	m := &Manager{
		refresher: refresher,
		store:     store,
		policy:    RetainOnAbsent,
		skew:      DefaultExpirySkew,
		nowTime:   time.Now,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Token returns the stored token set for userID, refreshed first if it is expiring soon.
func (m *Manager) Token(ctx context.Context, userID string) (*oauthmodel.TokenSet, error) {
	unlock := m.lock(userID)
	defer unlock()

	ts, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[Manager.Token] load: %w", err)
	}
	if !IsExpiringSoon(ts, m.nowTime(), m.skew) {
		return ts, nil
	}
	return m.refresh(ctx, userID, ts)
}

// ForceRefresh refreshes the stored token set for userID regardless of its expiry.
func (m *Manager) ForceRefresh(ctx context.Context, userID string) (*oauthmodel.TokenSet, error) {
	unlock := m.lock(userID)
	defer unlock()

	ts, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[Manager.ForceRefresh] load: %w", err)
	}
	return m.refresh(ctx, userID, ts)
}

// Save stores a token set obtained outside the manager, e.g. from a code exchange.
func (m *Manager) Save(ctx context.Context, userID string, ts *oauthmodel.TokenSet) error {
	unlock := m.lock(userID)
	defer unlock()
	return m.store.Save(ctx, userID, ts)
}

// refresh must be called with the user's lock held. A failed refresh leaves the store untouched.
func (m *Manager) refresh(ctx context.Context, userID string, current *oauthmodel.TokenSet) (*oauthmodel.TokenSet, error) {
	if current.RefreshToken == "" {
		return nil, fmt.Errorf("[Manager.refresh] %w", ErrNoRefreshToken)
	}

	refreshed, err := m.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("[Manager.refresh] %w", err)
	}

	merged := m.policy.Apply(current, refreshed)
	if err := m.store.Save(ctx, userID, merged); err != nil {
		// The new access token is still usable; a restart will need a new authorization.
		log.Error().Err(err).Str("user_id", userID).Msg("failed to save refreshed token set")
	}

	log.Info().Str("user_id", userID).Str("rotation", m.policy.String()).Bool("refresh_token_rotated", refreshed.RefreshToken != "").Msg("token set refreshed")
	return merged, nil
}

func (m *Manager) lock(userID string) func() {
	mu, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	l := mu.(*sync.Mutex)
	l.Lock()
	return l.Unlock
}
