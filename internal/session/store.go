// Package session implements the persisted session store, the write-generation
// manager that serializes session mutations, and the signed cookie that ties a
// browser context to its stored record.
package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/pkg"
)

// record is the persisted session row: exactly one per browser context.
// The profile snapshot is flattened into columns so the record stays a single
// self-contained row with no joins.
type record struct {
	ContextID string `gorm:"primaryKey;size:64"`
	Token     string `gorm:"size:512;not null"`
	UserID    string `gorm:"size:64;not null"`
	UserName  string `gorm:"size:255"`
	UserEmail string `gorm:"size:255"`
	Gender    string `gorm:"size:16"`
	UserType  string `gorm:"size:16"`
	IssuedAt  time.Time
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of struct renames.
func (record) TableName() string { return "sessions" }

// Migrate creates or updates the sessions table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&record{})
}

// repository implements domain.SessionStore using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a SessionStore backed by the given GORM database.
func NewRepository(db *gorm.DB) domain.SessionStore {
	return &repository{db: db}
}

// Get returns the stored session for the context, including an expired one.
func (r *repository) Get(ctx context.Context, contextID string) (*domain.Session, error) {
	var rec record
	if err := r.db.WithContext(ctx).First(&rec, "context_id = ?", contextID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewAppError(domain.CodeInternal, "session store read failed", err)
	}
	return rec.toSession(), nil
}

// Set overwrites any existing record for the context. Delete-then-create in a
// single transaction gives last-write-wins semantics on every driver without
// dialect-specific upsert clauses, and the write is visible to reads as soon
// as Set returns.
func (r *repository) Set(ctx context.Context, contextID string, s *domain.Session) error {
	if s == nil {
		return domain.NewAppError(domain.CodeInternal, "session is nil", nil)
	}
	rec := fromSession(contextID, s)
	err := pkg.WithTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Delete(&record{}, "context_id = ?", contextID).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "session store write failed", err)
	}
	return nil
}

// Clear removes the record. Clearing an absent record is a no-op.
func (r *repository) Clear(ctx context.Context, contextID string) error {
	if err := r.db.WithContext(ctx).Delete(&record{}, "context_id = ?", contextID).Error; err != nil {
		return domain.NewAppError(domain.CodeInternal, "session store delete failed", err)
	}
	return nil
}

// IsValid reports whether a record exists and has not expired.
func (r *repository) IsValid(ctx context.Context, contextID string) (bool, error) {
	s, err := r.Get(ctx, contextID)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !s.Expired(time.Now()), nil
}

func fromSession(contextID string, s *domain.Session) *record {
	rec := &record{
		ContextID: contextID,
		Token:     s.Token,
		UserID:    s.User.ID,
		UserName:  s.User.Name,
		UserEmail: s.User.Email,
		Gender:    s.User.Gender,
		UserType:  s.User.UserType,
		IssuedAt:  s.IssuedAt,
	}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		rec.ExpiresAt = &t
	}
	return rec
}

func (rec *record) toSession() *domain.Session {
	s := &domain.Session{
		Token: rec.Token,
		User: domain.Profile{
			ID:       rec.UserID,
			Name:     rec.UserName,
			Email:    rec.UserEmail,
			Gender:   rec.Gender,
			UserType: rec.UserType,
		},
		IssuedAt: rec.IssuedAt,
	}
	if rec.ExpiresAt != nil {
		s.ExpiresAt = *rec.ExpiresAt
	}
	return s
}
