package auth

import (
	"context"
	"time"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/identity"
	"github.com/pairview/pairview/internal/session"
)

// Service orchestrates authentication for one browser context: it forwards
// already-validated credentials to the identity service and, on success,
// commits the resulting session through the write-generation manager.
//
// Preconditions: callers run the credential validator first; the service
// forwards input without re-checking shape. Either the session commit
// completes and the session is returned, or no session mutation occurred and
// an error is returned. There is no partial session and no automatic retry.
type Service interface {
	Login(ctx context.Context, contextID, email, password string) (*domain.Session, error)
	Register(ctx context.Context, contextID string, in identity.RegisterInput) (*domain.Session, error)
	Logout(ctx context.Context, contextID string) error
}

// authService implements Service.
type authService struct {
	client   identity.Client
	sessions *session.Manager
	ttl      time.Duration // 0 means sessions carry no shell-side expiry
}

// NewService creates a Service over the identity client and session manager.
func NewService(client identity.Client, sessions *session.Manager, ttl time.Duration) Service {
	return &authService{
		client:   client,
		sessions: sessions,
		ttl:      ttl,
	}
}

// Login authenticates against the identity service and persists the session.
// The write generation is allocated before the network round trip, so a
// response arriving after a later action for the same context is discarded
// with session.ErrSuperseded.
func (s *authService) Login(ctx context.Context, contextID, email, password string) (*domain.Session, error) {
	gen := s.sessions.StartAttempt(contextID)

	result, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.sessions.Abandon(contextID)
		return nil, err
	}

	return s.commit(ctx, contextID, gen, result)
}

// Register creates an account at the identity service and persists the
// session it issues, logging the new user in.
func (s *authService) Register(ctx context.Context, contextID string, in identity.RegisterInput) (*domain.Session, error) {
	gen := s.sessions.StartAttempt(contextID)

	result, err := s.client.Register(ctx, in)
	if err != nil {
		s.sessions.Abandon(contextID)
		return nil, err
	}

	return s.commit(ctx, contextID, gen, result)
}

// Logout invalidates the context: any in-flight auth attempt is discarded and
// the stored session is cleared.
func (s *authService) Logout(ctx context.Context, contextID string) error {
	return s.sessions.Invalidate(ctx, contextID)
}

// commit builds the session from the identity result and applies it if the
// attempt has not been superseded.
func (s *authService) commit(ctx context.Context, contextID string, gen uint64, result *identity.Result) (*domain.Session, error) {
	now := time.Now()
	sess := &domain.Session{
		Token:    result.Token,
		User:     result.User,
		IssuedAt: now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}

	if err := s.sessions.Commit(ctx, contextID, gen, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
