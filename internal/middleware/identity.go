package middleware

// identity.go holds helpers shared across middleware files: reading the
// resolved caller and writing error bodies in the API's error format.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/identity"
)

// Caller returns the identity resolved by Identify, or Anonymous.
func Caller(c echo.Context) identity.Identity {
	return identity.FromContext(c.Request().Context())
}

// userID renders the caller for rate limit and cache keys.
func userID(c echo.Context) string {
	id := Caller(c)
	if !id.Authenticated() {
		return "anon"
	}
	return strconv.FormatUint(id.UserID, 10)
}

func deny(c echo.Context, status int, kind apperr.Kind, msg string) error {
	return c.JSON(status, echo.Map{"error": kind, "message": msg})
}
