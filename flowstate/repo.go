// Package flowstate stores pending authorization flows keyed by their state token.
package flowstate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrStateNotFound is returned by Take when no live flow exists for the state,
// including when it expired or was already taken.
var ErrStateNotFound = errors.New("state not found")

// PendingFlow is the context kept between the authorization redirect and the callback.
type PendingFlow struct {
	State        string
	CodeVerifier string
	RedirectURI  string
	UserID       string
	ReturnURL    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the flow can no longer be used at now.
func (f *PendingFlow) Expired(now time.Time) bool {
	return !now.Before(f.ExpiresAt)
}

// Repo persists pending flows with a TTL.
// Take must be atomic per state: when two callers race on the same state at most one receives the flow.
type Repo interface {
	Put(ctx context.Context, flow *PendingFlow, ttl time.Duration) error
	Take(ctx context.Context, state string) (*PendingFlow, error)
	Purge(ctx context.Context, now time.Time) (int, error)
}

// stateKey is the storage key for a state value. Raw state values are never persisted.
func stateKey(state string) string {
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:])
}

// Option configures a Repo implementation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used for expiry (primarily for testing)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func copyFlow(f *PendingFlow) *PendingFlow {
	c := *f
	return &c
}
