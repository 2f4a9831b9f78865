package flowstate

import (
	"context"
	"sync"
	"time"

	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]*PendingFlow
	now    func() time.Time
}

// NewInMemoryRepo creates a new in-memory pending flow repository
func NewInMemoryRepo(options ...Option) *InMemoryRepo {
	o := applyOptions(options)
	return &InMemoryRepo{
		states: make(map[string]*PendingFlow),
		now:    o.now,
	}
}

// Put stores a flow under its state. The flow expires ttl after now.
func (r *InMemoryRepo) Put(_ context.Context, flow *PendingFlow, ttl time.Duration) error {
	if flow == nil {
		return srverrors.ErrNilValue
	}
	if flow.State == "" {
		return srverrors.Wrapf(srverrors.ErrEmptyKey, "[InMemoryRepo.Put] state")
	}

	// Create a copy to prevent external modifications
	stored := copyFlow(flow)
	now := r.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.ExpiresAt = now.Add(ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[stateKey(flow.State)] = stored
	return nil
}

// Take removes and returns the flow for state. Lookup and delete happen under one lock.
func (r *InMemoryRepo) Take(_ context.Context, state string) (*PendingFlow, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}
	key := stateKey(state)

	r.mu.Lock()
	flow, exists := r.states[key]
	delete(r.states, key)
	r.mu.Unlock()

	if !exists || flow.Expired(r.now()) {
		return nil, ErrStateNotFound
	}
	return flow, nil
}

// Purge deletes expired flows and returns how many were removed.
func (r *InMemoryRepo) Purge(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for key, flow := range r.states {
		if flow.Expired(now) {
			delete(r.states, key)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of stored flows, live or expired.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
