package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/handler"
)

// RegisterMarket registers seller verification, listings and messages.
// Anonymous listing discovery goes through the response cache; detail
// reads do not, because each one counts a view.  Every listing write
// passes through changed, which drops the cached discovery pages.
func RegisterMarket(g *echo.Group, a *handler.ApplicationHandler, l *handler.ListingHandler, m *handler.MessageHandler, cache, changed echo.MiddlewareFunc) {
	g.POST("/applications", a.Submit)
	g.GET("/applications", a.List)
	g.GET("/applications/mine", a.Mine)
	g.POST("/applications/:id/decision", a.Decide)

	g.GET("/listings", l.List, cache)
	g.POST("/listings", l.Create, changed)
	g.GET("/listings/:id", l.Get)
	g.PATCH("/listings/:id", l.Update, changed)
	g.POST("/listings/:id/sales", l.RecordSale, changed)
	g.POST("/listings/:id/withdraw", l.Withdraw, changed)
	g.POST("/listings/:id/moderate", l.Moderate, changed)
	g.POST("/listings/:id/views", l.RecordView)

	g.POST("/listings/:id/messages", m.Send)
	g.GET("/messages", m.Threads)
	g.POST("/messages/read-all", m.MarkAllRead)
	g.POST("/messages/:id/read", m.MarkRead)
}
