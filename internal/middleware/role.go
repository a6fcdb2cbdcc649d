package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/model"
)

// RequireRole rejects requests whose resolved caller does not hold one of
// roles.  It must run after Identify.  The engine repeats the check; this
// gate only keeps whole route groups closed early.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := Caller(c)
			if !id.Authenticated() {
				return deny(c, http.StatusUnauthorized, apperr.Unauthorized, "authentication required")
			}
			if !id.Is(roles...) {
				return deny(c, http.StatusForbidden, apperr.Forbidden, "forbidden")
			}
			return next(c)
		}
	}
}
