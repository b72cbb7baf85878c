package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/pairview/pairview/internal/config"
)

type fakeHTTPServer struct {
	listenErr      error
	listenStarted  chan struct{}
	shutdownCalled bool
	stopCh         chan struct{}
	mu             sync.Mutex
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenStarted != nil {
		close(f.listenStarted)
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	if f.stopCh != nil {
		<-f.stopCh
	}
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.mu.Lock()
	f.shutdownCalled = true
	f.mu.Unlock()
	if f.stopCh != nil {
		close(f.stopCh)
	}
	return nil
}

func (f *fakeHTTPServer) wasShutdownCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdownCalled
}

func testAppConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:       "127.0.0.1",
			Port:       8080,
			Mode:       gin.TestMode,
			CSRFSecret: "app-test-csrf-secret",
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			SQLite: config.SQLiteConfig{Path: "file::memory:?cache=shared"},
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "text",
		},
		Identity: config.IdentityConfig{
			BaseURL:  "http://127.0.0.1:8080/identity",
			Timeout:  "5s",
			Embedded: true,
		},
		Session: config.SessionConfig{
			CookieName: "pv_session",
			Secret:     "app-test-session-secret-0123456789",
			TTL:        "720h",
		},
	}
}

func cleanupTestApp(t *testing.T, a *App) {
	t.Helper()
	if a == nil {
		return
	}
	if a.db != nil {
		sqlDB, dbErr := a.db.DB()
		if dbErr == nil {
			_ = sqlDB.Close()
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func TestValidateGinMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantErr bool
	}{
		{name: "debug mode", mode: gin.DebugMode, wantErr: false},
		{name: "release mode", mode: gin.ReleaseMode, wantErr: false},
		{name: "test mode", mode: gin.TestMode, wantErr: false},
		{name: "invalid mode", mode: "staging", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGinMode(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateGinMode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsPlaceholderCSRFSecret(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"", true},
		{"   ", true},
		{"change-me-to-a-random-secret", true},
		{"CHANGE-ME-IN-ENV", true},
		{"a-real-secret-value", false},
	}

	for _, tt := range tests {
		if got := isPlaceholderCSRFSecret(tt.secret); got != tt.want {
			t.Errorf("isPlaceholderCSRFSecret(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}

func TestResolveCORSConfig(t *testing.T) {
	tests := []struct {
		name            string
		mode            string
		cfg             config.CORSConfig
		wantOrigins     []string
		wantCredentials bool
	}{
		{
			name:        "explicit allowlist passes through",
			mode:        gin.ReleaseMode,
			cfg:         config.CORSConfig{AllowOrigins: []string{"https://app.example.com"}},
			wantOrigins: []string{"https://app.example.com"},
		},
		{
			name:        "release mode with no allowlist denies cross-origin",
			mode:        gin.ReleaseMode,
			cfg:         config.CORSConfig{},
			wantOrigins: nil,
		},
		{
			name:        "debug mode with no allowlist is permissive",
			mode:        gin.DebugMode,
			cfg:         config.CORSConfig{},
			wantOrigins: []string{"*"},
		},
		{
			name:            "credentials flag passes through",
			mode:            gin.DebugMode,
			cfg:             config.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}, AllowCredentials: true},
			wantOrigins:     []string{"http://localhost:5173"},
			wantCredentials: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveCORSConfig(tt.mode, tt.cfg)
			if len(got.AllowOrigins) != len(tt.wantOrigins) {
				t.Fatalf("AllowOrigins = %v, want %v", got.AllowOrigins, tt.wantOrigins)
			}
			for i := range tt.wantOrigins {
				if got.AllowOrigins[i] != tt.wantOrigins[i] {
					t.Fatalf("AllowOrigins[%d] = %q, want %q", i, got.AllowOrigins[i], tt.wantOrigins[i])
				}
			}
			if got.AllowCredentials != tt.wantCredentials {
				t.Fatalf("AllowCredentials = %v, want %v", got.AllowCredentials, tt.wantCredentials)
			}
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) error = nil, want error")
	}
}

func TestNew_ReturnsError_WhenDatabaseSetupFails(t *testing.T) {
	cfg := testAppConfig()
	cfg.Database.Driver = "unsupported"

	app, err := New(cfg)
	if err == nil {
		t.Fatal("New() error = nil, want error")
	}
	if app != nil {
		t.Fatalf("New() app = %#v, want nil", app)
	}
	if !strings.Contains(err.Error(), "setup database") {
		t.Fatalf("New() error = %q, want contains %q", err.Error(), "setup database")
	}
}

func TestNew_ReleaseMode_RejectsPlaceholderCSRFSecret(t *testing.T) {
	cfg := testAppConfig()
	cfg.Server.Mode = gin.ReleaseMode
	cfg.Server.CSRFSecret = "change-me-in-env"
	cfg.Identity.Embedded = false

	app, err := New(cfg)
	if err == nil {
		t.Fatal("New() error = nil, want error")
	}
	if app != nil {
		t.Fatalf("New() app = %#v, want nil", app)
	}
	if !strings.Contains(err.Error(), "csrf_secret") {
		t.Fatalf("New() error = %q, want contains %q", err.Error(), "csrf_secret")
	}
}

func TestNew_WiresFullApplication(t *testing.T) {
	app, err := New(testAppConfig())
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	defer cleanupTestApp(t, app)

	// Health endpoint reflects the migrated database.
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health: status = %d, want %d", w.Code, http.StatusOK)
	}

	// The login page renders through the template stack and issues a CSRF cookie.
	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /login: status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "_csrf_token=") {
		t.Error("GET /login: expected csrf cookie")
	}

	// The embedded identity service is mounted; an empty login body is a 400,
	// not a 404.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/identity/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	app.engine.ServeHTTP(w, req)
	if w.Code == http.StatusNotFound {
		t.Error("POST /identity/auth/login: got 404, expected the route to be mounted")
	}

	// Protected API routes reject anonymous callers.
	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/v1/auth/session: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRun_ReturnsError_WhenListenFails(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	listenErr := errors.New("listen failed")
	server := &fakeHTTPServer{listenErr: listenErr}
	newHTTPServer = func(string, http.Handler) httpServer {
		return server
	}
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return context.WithCancel(context.Background())
	}

	a := &App{
		engine: gin.New(),
		logger: logger.Default(),
		cfg:    &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080}},
	}

	err := a.Run()
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "server error") {
		t.Fatalf("Run() error = %q, want contains %q", err.Error(), "server error")
	}
	if !errors.Is(err, listenErr) {
		t.Fatalf("Run() error = %v, want wraps %v", err, listenErr)
	}
}

func TestRun_ShutdownSignal_ClosesDatabase(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}

	server := &fakeHTTPServer{listenStarted: make(chan struct{}), stopCh: make(chan struct{})}
	newHTTPServer = func(string, http.Handler) httpServer {
		return server
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return ctx, cancel
	}

	a := &App{
		engine: gin.New(),
		db:     db,
		logger: logger.Default(),
		cfg:    &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080}},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	select {
	case <-server.listenStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start listening in time")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return in time after shutdown signal")
	}

	if !server.wasShutdownCalled() {
		t.Fatal("expected server Shutdown() to be called")
	}

	if pingErr := sqlDB.Ping(); pingErr == nil {
		t.Fatal("expected database connection to be closed, but Ping() succeeded")
	}
}
