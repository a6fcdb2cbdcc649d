package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/handler"
)

// RegisterBoard registers the discussion board.  Reading is public;
// posting needs a SELLER, APPROVER or ADMIN token and locking needs ADMIN,
// both enforced by the engine.  Writes pass through changed, which drops
// the cached discussion index.
func RegisterBoard(g *echo.Group, h *handler.DiscussionHandler, cache, changed echo.MiddlewareFunc) {
	g.GET("/discussions", h.List, cache)
	g.POST("/discussions", h.Create, changed)
	g.GET("/discussions/:id", h.Get)
	g.POST("/discussions/:id/replies", h.Reply, changed)
	g.POST("/discussions/:id/lock", h.Lock, changed)
	g.DELETE("/replies/:id", h.DeleteReply, changed)
}
