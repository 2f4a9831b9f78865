package flowstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"gorm.io/gorm"
)

// pendingFlowRecord is the SQL row for a pending flow. Rows are keyed by the
// SHA-256 of the state so a leaked table cannot be replayed against the callback.
type pendingFlowRecord struct {
	StateHash    string    `gorm:"primaryKey;size:64"`
	CodeVerifier string    `gorm:"size:128;not null"`
	RedirectURI  string    `gorm:"size:2048"`
	UserID       string    `gorm:"size:256;index"`
	ReturnURL    string    `gorm:"size:2048"`
	CreatedAt    time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (pendingFlowRecord) TableName() string {
	return "pending_flows"
}

// GormRepo stores pending flows in any database gorm has a dialector for.
type GormRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepo migrates the pending_flows table and returns the repository.
func NewGormRepo(db *gorm.DB, options ...Option) (*GormRepo, error) {
	if db == nil {
		return nil, errors.New("[NewGormRepo] db is required")
	}
	if err := db.AutoMigrate(&pendingFlowRecord{}); err != nil {
		return nil, fmt.Errorf("[NewGormRepo] migrate: %w", err)
	}
	o := applyOptions(options)
	return &GormRepo{db: db, now: o.now}, nil
}

func (r *GormRepo) Put(ctx context.Context, flow *PendingFlow, ttl time.Duration) error {
	if flow == nil {
		return srverrors.ErrNilValue
	}
	if flow.State == "" {
		return srverrors.Wrapf(srverrors.ErrEmptyKey, "[GormRepo.Put] state")
	}

	now := r.now().UTC()
	createdAt := flow.CreatedAt.UTC()
	if flow.CreatedAt.IsZero() {
		createdAt = now
	}
	rec := &pendingFlowRecord{
		StateHash:    stateKey(flow.State),
		CodeVerifier: flow.CodeVerifier,
		RedirectURI:  flow.RedirectURI,
		UserID:       flow.UserID,
		ReturnURL:    flow.ReturnURL,
		CreatedAt:    createdAt,
		ExpiresAt:    now.Add(ttl),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("[GormRepo.Put] create: %w", err)
	}
	return nil
}

// Take reads and deletes the row in one transaction. Only the caller whose
// DELETE affected the row gets the flow, so concurrent callbacks cannot both win.
func (r *GormRepo) Take(ctx context.Context, state string) (*PendingFlow, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}
	key := stateKey(state)

	var rec pendingFlowRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state_hash = ?", key).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStateNotFound
			}
			return err
		}
		res := tx.Where("state_hash = ?", key).Delete(&pendingFlowRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("[GormRepo.Take] %w", err)
	}

	flow := &PendingFlow{
		State:        state,
		CodeVerifier: rec.CodeVerifier,
		RedirectURI:  rec.RedirectURI,
		UserID:       rec.UserID,
		ReturnURL:    rec.ReturnURL,
		CreatedAt:    rec.CreatedAt,
		ExpiresAt:    rec.ExpiresAt,
	}
	if flow.Expired(r.now()) {
		return nil, ErrStateNotFound
	}
	return flow, nil
}

func (r *GormRepo) Purge(ctx context.Context, now time.Time) (int, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&pendingFlowRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("[GormRepo.Purge] %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
