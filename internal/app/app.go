package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/pairview/pairview/internal/config"
	"github.com/pairview/pairview/internal/identity"
	"github.com/pairview/pairview/internal/middleware"
	"github.com/pairview/pairview/internal/module/auth"
	"github.com/pairview/pairview/internal/module/pages"
	"github.com/pairview/pairview/internal/session"
	"github.com/pairview/pairview/web"
)

// Route targets shared by the guard and the auth page handlers.
const (
	loginPath = "/login"
	homePath  = "/"
	chatPath  = "/chat"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database-backed session store, the identity gateway
// client (or the embedded development identity service), the route guard,
// middleware, template rendering, and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	// 3. Session store schema.
	if err := session.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate session store: %w", err)
	}

	// 4. Session layer: store -> manager -> cookie codec.
	sessions := session.NewManager(session.NewRepository(db))
	secure := cfg.Server.Mode == gin.ReleaseMode
	cookies := session.NewCookieCodec(cfg.Session.CookieName, cfg.Session.Secret, secure)

	// 5. Identity gateway. The embedded development service implements the
	// same HTTP contract, so the gateway client always talks HTTP.
	var devServer *identity.DevServer
	if cfg.Identity.Embedded {
		devServer, err = identity.NewDevServer(db)
		if err != nil {
			return nil, fmt.Errorf("setup embedded identity service: %w", err)
		}
		log.Warn("embedded identity service enabled; accounts are stored in the local database")
	}
	client := identity.NewHTTPClient(cfg.Identity.BaseURL, cfg.IdentityTimeout())

	// 6. Auth wiring: service -> handlers -> guard -> modules.
	svc := auth.NewService(client, sessions, cfg.SessionTTL())
	guard := middleware.NewGuard(sessions, cookies, loginPath, chatPath)
	authModule := auth.NewModule(
		auth.NewHandler(svc, cookies),
		auth.NewPageHandler(svc, cookies, chatPath, homePath),
		guard,
	)
	pagesModule := pages.NewModule(pages.NewPageHandler(), guard)

	// 7. Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	corsConfig := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestID(),
		middleware.Logger(log.Logger),
		middleware.CORS(corsConfig),
	)

	// 8. Template renderer: hot reload in debug, embedded in release.
	var fsys fs.FS
	if cfg.Server.Mode == "debug" {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 9. CSRF secret.
	csrfSecret := cfg.Server.CSRFSecret
	if isPlaceholderCSRFSecret(csrfSecret) {
		if cfg.Server.Mode == gin.ReleaseMode {
			return nil, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		csrfSecret = hex.EncodeToString(b)
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 10. Routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    []Module{authModule, pagesModule},
		DB:         db,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
		Identity:   devServer,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine: engine,
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

// resolveCORSConfig maps application CORS settings to the middleware config.
// An unconfigured allowlist is permissive outside release mode; in release
// mode it stays empty, which the middleware treats as deny.
func resolveCORSConfig(mode string, cfg config.CORSConfig) middleware.CORSConfig {
	out := middleware.CORSConfig{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: cfg.AllowCredentials,
	}

	if len(out.AllowOrigins) == 0 && mode != gin.ReleaseMode {
		out.AllowOrigins = []string{"*"}
	}

	return out
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and closes the
// database connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logInfo("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		a.logInfo("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logError("server shutdown error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.logError("database close error", slog.Any("error", err))
			} else {
				a.logInfo("database connection closed")
			}
		}
	}

	a.logInfo("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

func (a *App) logInfo(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
		return
	}
	slog.Info(msg, args...)
}

func (a *App) logError(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
		return
	}
	slog.Error(msg, args...)
}
