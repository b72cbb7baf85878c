package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/session"
)

const guardTestSecret = "guard-test-secret-0123456789abcdef"

// stubStore is an in-memory SessionStore for guard tests.
type stubStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newStubStore() *stubStore {
	return &stubStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubStore) Get(_ context.Context, contextID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[contextID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (s *stubStore) Set(_ context.Context, contextID string, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[contextID] = sess
	return nil
}

func (s *stubStore) Clear(_ context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, contextID)
	return nil
}

func (s *stubStore) IsValid(_ context.Context, contextID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[contextID]
	if !ok {
		return false, nil
	}
	return !sess.Expired(time.Now()), nil
}

func (s *stubStore) has(contextID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[contextID]
	return ok
}

type guardFixture struct {
	engine  *gin.Engine
	store   *stubStore
	cookies *session.CookieCodec
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newStubStore()
	manager := session.NewManager(store)
	cookies := session.NewCookieCodec("pv_session", guardTestSecret, false)
	guard := NewGuard(manager, cookies, "/login", "/chat")

	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }

	engine := gin.New()
	engine.GET("/", guard.Require(Public), ok)
	engine.GET("/chat", guard.Require(Protected), ok)
	engine.GET("/login", guard.Require(AuthOnly), ok)
	engine.GET("/api/session", guard.RequireAPI(Protected), ok)
	engine.GET("/api/authonly", guard.RequireAPI(AuthOnly), ok)
	engine.GET("/whoami", guard.Require(Public), func(c *gin.Context) {
		if sess, ok := CurrentSession(c); ok {
			c.String(http.StatusOK, sess.User.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	return &guardFixture{engine: engine, store: store, cookies: cookies}
}

// signIn stores a session and returns the matching signed cookie.
func (f *guardFixture) signIn(t *testing.T, contextID string, expiresAt time.Time) *http.Cookie {
	t.Helper()
	sess := &domain.Session{
		Token:     "tok-abc",
		User:      domain.Profile{ID: "u-1", Email: "alice@example.com"},
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}
	if err := f.store.Set(context.Background(), contextID, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	value, err := f.cookies.Issue(contextID)
	if err != nil {
		t.Fatalf("issue cookie: %v", err)
	}
	return &http.Cookie{Name: "pv_session", Value: value}
}

func (f *guardFixture) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestGuard_PublicAlwaysPasses(t *testing.T) {
	f := newGuardFixture(t)

	if w := f.get(t, "/"); w.Code != http.StatusOK {
		t.Fatalf("anonymous: expected 200, got %d", w.Code)
	}

	ck := f.signIn(t, "ctx-1", time.Now().Add(time.Hour))
	if w := f.get(t, "/", ck); w.Code != http.StatusOK {
		t.Fatalf("authenticated: expected 200, got %d", w.Code)
	}
}

func TestGuard_ProtectedRedirectsAnonymous(t *testing.T) {
	f := newGuardFixture(t)

	w := f.get(t, "/chat")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestGuard_ProtectedPassesAuthenticated(t *testing.T) {
	f := newGuardFixture(t)
	ck := f.signIn(t, "ctx-1", time.Now().Add(time.Hour))

	if w := f.get(t, "/chat", ck); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGuard_ProtectedClearsExpiredSession(t *testing.T) {
	f := newGuardFixture(t)
	ck := f.signIn(t, "ctx-1", time.Now().Add(-time.Minute))

	w := f.get(t, "/chat", ck)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if f.store.has("ctx-1") {
		t.Fatal("expected the expired record to be cleared")
	}

	// The response also drops the cookie.
	dropped := false
	for _, setCk := range w.Result().Cookies() {
		if setCk.Name == "pv_session" && setCk.MaxAge == -1 {
			dropped = true
		}
	}
	if !dropped {
		t.Fatal("expected the session cookie to be dropped")
	}
}

func TestGuard_ProtectedRejectsForgedCookie(t *testing.T) {
	f := newGuardFixture(t)
	f.signIn(t, "ctx-1", time.Now().Add(time.Hour))

	// A cookie signed with a different secret never reaches the store.
	forger := session.NewCookieCodec("pv_session", "attacker-secret-0123456789abcdef", false)
	value, err := forger.Issue("ctx-1")
	if err != nil {
		t.Fatalf("issue forged cookie: %v", err)
	}

	w := f.get(t, "/chat", &http.Cookie{Name: "pv_session", Value: value})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if !f.store.has("ctx-1") {
		t.Fatal("a forged cookie must not invalidate the real session")
	}
}

func TestGuard_AuthOnlyRedirectsAuthenticated(t *testing.T) {
	f := newGuardFixture(t)
	ck := f.signIn(t, "ctx-1", time.Now().Add(time.Hour))

	w := f.get(t, "/login", ck)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/chat" {
		t.Fatalf("expected redirect to /chat, got %q", loc)
	}
}

func TestGuard_AuthOnlyPassesAnonymous(t *testing.T) {
	f := newGuardFixture(t)

	if w := f.get(t, "/login"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGuard_AuthOnlyPassesExpiredSession(t *testing.T) {
	f := newGuardFixture(t)
	ck := f.signIn(t, "ctx-1", time.Now().Add(-time.Minute))

	if w := f.get(t, "/login", ck); w.Code != http.StatusOK {
		t.Fatalf("expected expired session to count as signed out, got %d", w.Code)
	}
}

func TestGuard_APIVariantsUseStatusCodes(t *testing.T) {
	f := newGuardFixture(t)

	if w := f.get(t, "/api/session"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous API access, got %d", w.Code)
	}

	ck := f.signIn(t, "ctx-1", time.Now().Add(time.Hour))
	if w := f.get(t, "/api/session", ck); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated API access, got %d", w.Code)
	}
	if w := f.get(t, "/api/authonly", ck); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for authenticated AuthOnly API access, got %d", w.Code)
	}
}

func TestGuard_CurrentSessionExposure(t *testing.T) {
	f := newGuardFixture(t)

	if w := f.get(t, "/whoami"); w.Body.String() != "anonymous" {
		t.Fatalf("expected anonymous, got %q", w.Body.String())
	}

	ck := f.signIn(t, "ctx-1", time.Now().Add(time.Hour))
	if w := f.get(t, "/whoami", ck); w.Body.String() != "alice@example.com" {
		t.Fatalf("expected profile email, got %q", w.Body.String())
	}
}
