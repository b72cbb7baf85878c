package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/session"
)

// RouteClass is the static classification a route declares to the guard.
// The guard knows nothing about route content beyond this tag.
type RouteClass int

const (
	// Public routes are reachable regardless of session state.
	Public RouteClass = iota
	// Protected routes require a valid session; unauthenticated visitors
	// are redirected to the login page (HTML) or get 401 (API).
	Protected
	// AuthOnly routes (login/register) redirect already-authenticated
	// visitors to the protected landing surface.
	AuthOnly
)

const (
	sessionContextKey = "auth_session"
	browserContextKey = "auth_context_id"
)

// Guard gates navigation based on route classification and the session store.
// It holds no state of its own: every request re-reads the store, so it is
// trivially re-entrant. An expired record found on a Protected route is
// cleared through the same invalidation path logout uses.
type Guard struct {
	sessions  *session.Manager
	cookies   *session.CookieCodec
	loginPath string
	homePath  string
}

// NewGuard creates a Guard. loginPath receives unauthenticated visitors of
// Protected routes; homePath receives authenticated visitors of AuthOnly
// routes.
func NewGuard(sessions *session.Manager, cookies *session.CookieCodec, loginPath, homePath string) *Guard {
	return &Guard{
		sessions:  sessions,
		cookies:   cookies,
		loginPath: loginPath,
		homePath:  homePath,
	}
}

// Require returns the guard middleware for HTML navigation of a route with
// the given classification. Redirects use 303 See Other so form POSTs land on
// a GET.
func (g *Guard) Require(class RouteClass) gin.HandlerFunc {
	return g.middleware(class, false)
}

// RequireAPI returns the guard middleware for API routes: instead of
// redirecting, unauthenticated access to Protected routes gets 401 JSON.
func (g *Guard) RequireAPI(class RouteClass) gin.HandlerFunc {
	return g.middleware(class, true)
}

func (g *Guard) middleware(class RouteClass, api bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		contextID, hasCookie := g.cookies.ContextID(c)

		var sess *domain.Session
		valid := false
		if hasCookie {
			c.Set(browserContextKey, contextID)
			s, err := g.sessions.Store().Get(c.Request.Context(), contextID)
			switch {
			case err == nil:
				sess = s
				valid = !s.Expired(time.Now())
			case !domain.IsNotFound(err):
				slog.ErrorContext(c.Request.Context(), "session store read failed",
					slog.Any("error", err))
			}
		}

		switch {
		case class == Protected && !valid:
			// Clear any stale record before redirecting, mirroring the
			// logout cleanup.
			if hasCookie {
				if err := g.sessions.Invalidate(c.Request.Context(), contextID); err != nil {
					slog.ErrorContext(c.Request.Context(), "stale session cleanup failed",
						slog.Any("error", err))
				}
				g.cookies.Drop(c)
			}
			if api {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    http.StatusUnauthorized,
					"message": "authentication required",
				})
				return
			}
			c.Redirect(http.StatusSeeOther, g.loginPath)
			c.Abort()

		case class == AuthOnly && valid:
			if api {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"code":    http.StatusConflict,
					"message": "already authenticated",
				})
				return
			}
			c.Redirect(http.StatusSeeOther, g.homePath)
			c.Abort()

		default:
			if valid {
				c.Set(sessionContextKey, sess)
			}
			c.Next()
		}
	}
}

// CurrentSession returns the valid session the guard loaded for this request,
// if any. Handlers must not cache the result beyond the request.
func CurrentSession(c *gin.Context) (*domain.Session, bool) {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*domain.Session)
	return s, ok
}

// BrowserContextID returns the verified browser-context ID from the request
// cookie, if one was present.
func BrowserContextID(c *gin.Context) (string, bool) {
	v, exists := c.Get(browserContextKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
