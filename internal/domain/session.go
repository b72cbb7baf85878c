package domain

import (
	"context"
	"time"
)

// Gender values accepted at registration. The shell validates and forwards
// them; interpretation belongs to the matching service.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Account classes. Forwarded to the matching policy, never interpreted here.
const (
	UserTypeFree = "free"
	UserTypePro  = "pro"
)

// Profile is the minimal user snapshot captured at login/registration time.
// It is not refreshed afterwards; the identity service remains the system of
// record.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Gender   string `json:"gender"`
	UserType string `json:"userType"`
}

// Session is the persisted proof of authentication for one browser context:
// the opaque bearer token issued by the identity service plus the profile
// snapshot. A session exists if and only if a prior login or registration
// succeeded and has not been cleared or found expired.
type Session struct {
	Token     string    `json:"token"`
	User      Profile   `json:"user"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"` // zero means no expiry
}

// Expired reports whether the session has an expiry and it has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// SessionStore is the single source of truth for "is authenticated". Records
// are keyed by an opaque browser-context ID carried in a signed cookie;
// absence of a record is equivalent to logged out.
//
// Reads are safe for unlimited concurrent use. Mutations originate from one
// logical user action at a time; concurrent Set calls resolve last-write-wins.
type SessionStore interface {
	// Get returns the last persisted session for the context, including one
	// that is already expired. It never makes a network call and returns
	// ErrNotFound when no record exists.
	Get(ctx context.Context, contextID string) (*Session, error)

	// Set overwrites any existing record for the context. The write is
	// synchronous: a Get issued after Set returns observes the new record.
	Set(ctx context.Context, contextID string, s *Session) error

	// Clear removes the record and any persisted trace of it. Clearing an
	// absent record is a no-op, not an error.
	Clear(ctx context.Context, contextID string) error

	// IsValid reports whether a record exists and has not expired.
	IsValid(ctx context.Context, contextID string) (bool, error)
}
