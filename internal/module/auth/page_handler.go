package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pairview/pairview/internal/domain"
	"github.com/pairview/pairview/internal/middleware"
	"github.com/pairview/pairview/internal/session"
)

// AuthPageHandler renders the login/register pages and handles their form
// submissions: it runs the credential validator, invokes the auth service,
// and renders inline field errors or redirects on success.
type AuthPageHandler struct {
	svc     Service
	cookies *session.CookieCodec
	chatURL string
	homeURL string
}

// NewPageHandler creates a new AuthPageHandler. chatURL is the protected
// landing surface users reach after signing in; homeURL receives users after
// logout.
func NewPageHandler(svc Service, cookies *session.CookieCodec, chatURL, homeURL string) *AuthPageHandler {
	return &AuthPageHandler{
		svc:     svc,
		cookies: cookies,
		chatURL: chatURL,
		homeURL: homeURL,
	}
}

// LoginPage renders the login form.
// GET /login
func (h *AuthPageHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "auth/login.html", gin.H{
		"CSRFToken": middleware.GetCSRFToken(c),
		"Field":     "",
	})
}

// LoginSubmit handles the login form submission.
// POST /login
func (h *AuthPageHandler) LoginSubmit(c *gin.Context) {
	var req LoginRequest
	// Manual field reads instead of binding so an empty form still renders
	// validator errors rather than a bare 400.
	req.Email = c.PostForm("email")
	req.Password = c.PostForm("password")

	if err := ValidateLogin(req.Email, req.Password); err != nil {
		h.renderLogin(c, &req, err)
		return
	}

	contextID := h.ensurePageContextID(c)
	_, err := h.svc.Login(c.Request.Context(), contextID, req.Email, req.Password)
	if err != nil {
		h.renderLogin(c, &req, err)
		return
	}

	if err := h.cookies.Write(c, contextID); err != nil {
		h.renderLogin(c, &req, domain.NewAppError(domain.CodeInternal, "issue session cookie", err))
		return
	}

	// 303 after the session commit: the redirected navigation re-runs the
	// guard against the already-visible session.
	c.Redirect(http.StatusSeeOther, h.chatURL)
}

// RegisterPage renders the registration form.
// GET /register
func (h *AuthPageHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "auth/register.html", gin.H{
		"CSRFToken": middleware.GetCSRFToken(c),
		"Field":     "",
	})
}

// RegisterSubmit handles the registration form submission.
// POST /register
func (h *AuthPageHandler) RegisterSubmit(c *gin.Context) {
	req := RegisterRequest{
		Name:        c.PostForm("name"),
		Email:       c.PostForm("email"),
		Password:    c.PostForm("password"),
		DateOfBirth: c.PostForm("dateOfBirth"),
		Gender:      c.PostForm("gender"),
		UserType:    c.PostForm("userType"),
	}

	dob, err := ValidateRegister(req.input(), time.Now())
	if err != nil {
		h.renderRegister(c, &req, err)
		return
	}

	contextID := h.ensurePageContextID(c)
	_, err = h.svc.Register(c.Request.Context(), contextID, registerInput(&req, dob))
	if err != nil {
		h.renderRegister(c, &req, err)
		return
	}

	if err := h.cookies.Write(c, contextID); err != nil {
		h.renderRegister(c, &req, domain.NewAppError(domain.CodeInternal, "issue session cookie", err))
		return
	}

	c.Redirect(http.StatusSeeOther, h.chatURL)
}

// LogoutSubmit handles the logout form submission. Clearing an absent session
// is a no-op, so this never fails the user.
// POST /logout
func (h *AuthPageHandler) LogoutSubmit(c *gin.Context) {
	if contextID, ok := h.cookies.ContextID(c); ok {
		if err := h.svc.Logout(c.Request.Context(), contextID); err != nil {
			c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
			return
		}
	}
	h.cookies.Drop(c)
	c.Redirect(http.StatusSeeOther, h.homeURL)
}

// renderLogin re-renders the login form with an error and sticky values
// (never the password).
func (h *AuthPageHandler) renderLogin(c *gin.Context, req *LoginRequest, err error) {
	data := gin.H{
		"CSRFToken": middleware.GetCSRFToken(c),
		"Email":     req.Email,
		"Field":     "",
	}
	applyFormError(data, err)
	c.HTML(http.StatusOK, "auth/login.html", data)
}

// renderRegister re-renders the registration form with an error and sticky
// values (never the password).
func (h *AuthPageHandler) renderRegister(c *gin.Context, req *RegisterRequest, err error) {
	data := gin.H{
		"CSRFToken":   middleware.GetCSRFToken(c),
		"Name":        req.Name,
		"Email":       req.Email,
		"DateOfBirth": req.DateOfBirth,
		"Gender":      req.Gender,
		"UserType":    req.UserType,
		"Field":       "",
	}
	applyFormError(data, err)
	c.HTML(http.StatusOK, "auth/register.html", data)
}

// applyFormError translates an error into template data: validation and
// conflict errors are user-correctable and rendered next to the field when
// known; unauthorized stays generic so the response never reveals whether the
// email exists; transport and server failures get a generic try-again banner.
func applyFormError(data gin.H, err error) {
	if errors.Is(err, session.ErrSuperseded) {
		data["Error"] = "That request was superseded by a newer action. Please try again."
		return
	}

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		data["Error"] = "Something went wrong. Please try again."
		return
	}

	switch appErr.Code {
	case domain.CodeValidation:
		data["Error"] = appErr.Message
		data["Field"] = appErr.Field
	case domain.CodeConflict:
		data["Error"] = "That email address is already in use."
		data["Field"] = "email"
	case domain.CodeUnauthorized:
		data["Error"] = "Invalid email or password."
	case domain.CodeNetwork, domain.CodeServer:
		data["Error"] = "We could not reach the sign-in service. Please try again."
	default:
		data["Error"] = "Something went wrong. Please try again."
	}
}

// ensurePageContextID reuses the verified browser-context ID or mints a fresh
// one for a first-time visitor.
func (h *AuthPageHandler) ensurePageContextID(c *gin.Context) string {
	if id, ok := h.cookies.ContextID(c); ok {
		return id
	}
	return uuid.NewString()
}
