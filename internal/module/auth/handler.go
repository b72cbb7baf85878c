package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/middleware"
	"github.com/pairview/pairview/internal/pkg"
	"github.com/pairview/pairview/internal/session"
)

// AuthHandler handles REST API requests for authentication.
type AuthHandler struct {
	svc     Service
	cookies *session.CookieCodec
}

// NewHandler creates a new AuthHandler.
func NewHandler(svc Service, cookies *session.CookieCodec) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.Bind(c, &req) {
		return
	}

	if err := ValidateLogin(req.Email, req.Password); err != nil {
		pkg.Error(c, err)
		return
	}

	contextID := h.ensureContextID(c)
	sess, err := h.svc.Login(c.Request.Context(), contextID, req.Email, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	// The cookie is written after the session commit, so the navigation
	// this response triggers always observes the committed session.
	if err := h.cookies.Write(c, contextID); err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "issue session cookie", err))
		return
	}

	pkg.Success(c, NewSessionResponse(sess))
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !pkg.Bind(c, &req) {
		return
	}

	dob, err := ValidateRegister(req.input(), time.Now())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	contextID := h.ensureContextID(c)
	sess, err := h.svc.Register(c.Request.Context(), contextID, registerInput(&req, dob))
	if err != nil {
		h.authError(c, err)
		return
	}

	if err := h.cookies.Write(c, contextID); err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "issue session cookie", err))
		return
	}

	c.JSON(http.StatusCreated, pkg.Response{
		Code:    http.StatusCreated,
		Message: "registered successfully",
		Data:    NewSessionResponse(sess),
	})
}

// Logout handles POST /api/v1/auth/logout. Idempotent: logging out without a
// session succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if contextID, ok := middleware.BrowserContextID(c); ok {
		if err := h.svc.Logout(c.Request.Context(), contextID); err != nil {
			pkg.Error(c, err)
			return
		}
	}
	h.cookies.Drop(c)
	pkg.Success(c, nil)
}

// Session handles GET /api/v1/auth/session. The route is guarded as
// Protected, so a valid session is always present here.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeUnauthorized, "authentication required", nil))
		return
	}
	pkg.Success(c, NewSessionResponse(sess))
}

// ensureContextID reuses the verified browser-context ID from the request
// cookie or mints a fresh one for a first-time visitor.
func (h *AuthHandler) ensureContextID(c *gin.Context) string {
	if id, ok := h.cookies.ContextID(c); ok {
		return id
	}
	return uuid.NewString()
}

// authError renders service errors, giving superseded attempts their own
// response: the result was discarded, nothing was stored, and the client
// should simply re-submit if the action is still wanted.
func (h *AuthHandler) authError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrSuperseded) {
		slog.DebugContext(c.Request.Context(), "auth attempt superseded")
		c.JSON(http.StatusConflict, pkg.Response{
			Code:    http.StatusConflict,
			Message: "request superseded by a newer action, please retry",
		})
		return
	}
	pkg.Error(c, err)
}
