package pages

import (
	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/middleware"
)

// PagesModule implements the app.Module interface for the presentational
// pages. Each route declares its classification to the route guard.
type PagesModule struct {
	handler *PageHandler
	guard   *middleware.Guard
}

// NewModule creates a new PagesModule. Panics if a dependency is nil.
func NewModule(h *PageHandler, guard *middleware.Guard) *PagesModule {
	if h == nil || guard == nil {
		panic("pages.NewModule: handler and guard must not be nil")
	}
	return &PagesModule{handler: h, guard: guard}
}

// RegisterRoutes registers the page routes. The chat surface and the profile
// page are Protected; the landing and privacy pages are Public.
func (m *PagesModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	pages.GET("/", m.guard.Require(middleware.Public), m.handler.Home)
	pages.GET("/privacy", m.guard.Require(middleware.Public), m.handler.Privacy)
	pages.GET("/chat", m.guard.Require(middleware.Protected), m.handler.Chat)
	pages.GET("/profile", m.guard.Require(middleware.Protected), m.handler.Profile)
}
