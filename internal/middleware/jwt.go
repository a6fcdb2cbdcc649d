package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/utils"
)

// Identify resolves the caller from a Bearer access token and stores it on
// the request context.  Requests without an Authorization header continue
// as anonymous; the engine decides whether that is enough.  A header that
// is present but malformed, expired or badly signed is rejected with 401.
func Identify(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return next(c)
			}
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return deny(c, http.StatusUnauthorized, apperr.Unauthorized, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return deny(c, http.StatusUnauthorized, apperr.Unauthorized, "invalid token")
			}
			role, err := identity.ParseRole(claims.Role)
			if err != nil {
				return deny(c, http.StatusUnauthorized, apperr.Unauthorized, "invalid claims")
			}
			id := identity.New(claims.UserID, role)
			c.SetRequest(c.Request().WithContext(identity.WithContext(c.Request().Context(), id)))
			c.Set("user_id", claims.UserID)
			c.Set("role", string(role))
			return next(c)
		}
	}
}
