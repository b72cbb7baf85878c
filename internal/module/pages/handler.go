package pages

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/middleware"
)

// PageHandler renders the presentational surfaces of the product shell. The
// pages carry no decision logic: authentication state only toggles which
// navigation links the templates show.
type PageHandler struct{}

// NewPageHandler creates a new PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Home renders the marketing landing page.
// GET /
func (h *PageHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "pages/home.html", h.baseData(c))
}

// Privacy renders the privacy policy document.
// GET /privacy
func (h *PageHandler) Privacy(c *gin.Context) {
	c.HTML(http.StatusOK, "pages/privacy.html", h.baseData(c))
}

// Chat renders the chat surface. Protected: the guard has already ensured a
// valid session exists.
// GET /chat
func (h *PageHandler) Chat(c *gin.Context) {
	c.HTML(http.StatusOK, "pages/chat.html", h.baseData(c))
}

// Profile renders the account profile page. Protected.
// GET /profile
func (h *PageHandler) Profile(c *gin.Context) {
	c.HTML(http.StatusOK, "pages/profile.html", h.baseData(c))
}

// baseData assembles the template data shared by all pages: the CSRF token
// for forms and, when signed in, the current profile for the navigation bar.
func (h *PageHandler) baseData(c *gin.Context) gin.H {
	data := gin.H{
		"CSRFToken": middleware.GetCSRFToken(c),
	}
	if sess, ok := middleware.CurrentSession(c); ok {
		data["User"] = sess.User
	}
	return data
}
