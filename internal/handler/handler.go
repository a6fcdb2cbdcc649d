// Package handler exposes the marketplace engine over HTTP.  Handlers
// decode requests, pass the caller resolved by middleware to the engine and
// map engine errors to status codes.  They hold no business rules.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/identity"
)

// requestTimeout bounds one engine call.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func caller(c echo.Context) identity.Identity {
	return identity.FromContext(c.Request().Context())
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional integer query parameter, returning def when
// it is absent.
func queryInt(c echo.Context, name string, def int) (int, bool) {
	s := c.QueryParam(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 0
}

func queryUint(c echo.Context, name string) (uint64, bool) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}
