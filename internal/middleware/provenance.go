package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/audit"
)

// Provenance copies the client address, user agent and request id onto the
// request context so audit events can record where a change came from.  It
// must run after the request id middleware.
func Provenance() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = r.Header.Get(echo.HeaderXRequestID)
			}
			p := audit.Provenance{IP: c.RealIP(), UserAgent: r.UserAgent(), RequestID: rid}
			c.SetRequest(r.WithContext(audit.WithProvenance(r.Context(), p)))
			return next(c)
		}
	}
}
