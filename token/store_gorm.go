package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tokenSetRecord struct {
	UserID       string    `gorm:"primaryKey;size:256"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	TokenType    string    `gorm:"size:64"`
	ExpiresIn    int64     `gorm:"not null;default:0"`
	Scope        string    `gorm:"size:1024"`
	IssuedAt     time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (tokenSetRecord) TableName() string {
	return "token_sets"
}

// GormStore keeps token sets in the token_sets table, one row per user.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the token_sets table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("[NewGormStore] db is required")
	}
	if err := db.AutoMigrate(&tokenSetRecord{}); err != nil {
		return nil, fmt.Errorf("[NewGormStore] migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Load(ctx context.Context, userID string) (*oauthmodel.TokenSet, error) {
	var rec tokenSetRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("[GormStore.Load] %w", err)
	}
	return &oauthmodel.TokenSet{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		ExpiresIn:    rec.ExpiresIn,
		Scope:        rec.Scope,
		IssuedAt:     rec.IssuedAt,
	}, nil
}

// Save upserts the row for userID.
func (s *GormStore) Save(ctx context.Context, userID string, ts *oauthmodel.TokenSet) error {
	if userID == "" {
		return srverrors.Wrapf(srverrors.ErrEmptyKey, "[GormStore.Save] user id")
	}
	if ts == nil {
		return srverrors.ErrNilValue
	}

	rec := &tokenSetRecord{
		UserID:       userID,
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		TokenType:    ts.TokenType,
		ExpiresIn:    ts.ExpiresIn,
		Scope:        ts.Scope,
		IssuedAt:     ts.IssuedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expires_in", "scope", "issued_at", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("[GormStore.Save] upsert: %w", err)
	}
	return nil
}
