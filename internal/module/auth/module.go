package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/middleware"
)

// AuthModule implements the app.Module interface for the auth domain.
type AuthModule struct {
	handler     *AuthHandler
	pageHandler *AuthPageHandler
	guard       *middleware.Guard
}

// NewModule creates a new AuthModule. Panics if any dependency is nil.
func NewModule(h *AuthHandler, ph *AuthPageHandler, guard *middleware.Guard) *AuthModule {
	if h == nil || ph == nil || guard == nil {
		panic("auth.NewModule: handler, page handler, and guard must not be nil")
	}
	return &AuthModule{handler: h, pageHandler: ph, guard: guard}
}

// RegisterRoutes registers auth API and page routes with their route
// classifications. The login/register pages are AuthOnly: an authenticated
// visitor is redirected away instead of being shown a sign-in form.
func (m *AuthModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	a := api.Group("/auth")
	a.POST("/login", m.handler.Login)
	a.POST("/register", m.handler.Register)
	a.POST("/logout", m.guard.RequireAPI(middleware.Public), m.handler.Logout)
	a.GET("/session", m.guard.RequireAPI(middleware.Protected), m.handler.Session)

	pages.GET("/login", m.guard.Require(middleware.AuthOnly), m.pageHandler.LoginPage)
	pages.POST("/login", m.guard.Require(middleware.AuthOnly), m.pageHandler.LoginSubmit)
	pages.GET("/register", m.guard.Require(middleware.AuthOnly), m.pageHandler.RegisterPage)
	pages.POST("/register", m.guard.Require(middleware.AuthOnly), m.pageHandler.RegisterSubmit)
	pages.POST("/logout", m.pageHandler.LogoutSubmit)
}
