package auth

import (
	"time"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/identity"
)

// LoginRequest represents the input for login. Binding only enforces
// presence; everything else is the credential validator's job.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest represents the input for registration. Field order matches
// the validator's fixed violation-report order.
type RegisterRequest struct {
	Name        string `json:"name" form:"name" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required"`
	Password    string `json:"password" form:"password" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" form:"dateOfBirth" binding:"required"`
	Gender      string `json:"gender" form:"gender" binding:"required"`
	UserType    string `json:"userType" form:"userType" binding:"required"`
}

// input converts the request into the validator's input form.
func (r *RegisterRequest) input() RegisterInput {
	return RegisterInput{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
		UserType:    r.UserType,
	}
}

// registerInput builds the identity-service input from a validated request
// and the parsed date of birth.
func registerInput(r *RegisterRequest, dob time.Time) identity.RegisterInput {
	return identity.RegisterInput{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		DateOfBirth: dob,
		Gender:      r.Gender,
		UserType:    r.UserType,
	}
}

// SessionResponse is the session view returned to the browser after a
// successful login or registration. The bearer token stays server-side.
type SessionResponse struct {
	User      domain.Profile `json:"user"`
	IssuedAt  time.Time      `json:"issuedAt"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

// NewSessionResponse builds the response view of a session.
func NewSessionResponse(s *domain.Session) SessionResponse {
	resp := SessionResponse{
		User:     s.User,
		IssuedAt: s.IssuedAt,
	}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		resp.ExpiresAt = &t
	}
	return resp
}
