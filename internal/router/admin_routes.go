package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/handler"
	"github.com/iliyamo/suite-exchange/internal/middleware"
	"github.com/iliyamo/suite-exchange/internal/model"
)

// RegisterAdmin registers the suite catalogue and the admin-only group.
func RegisterAdmin(g *echo.Group, h *handler.AdminHandler, cache echo.MiddlewareFunc) {
	g.GET("/suites", h.Suites, cache)

	admin := g.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/users/:id/lock", h.LockUser)
	admin.GET("/audit", h.Audit)
}
