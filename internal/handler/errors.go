package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.Unauthorized:    http.StatusUnauthorized,
	apperr.Forbidden:       http.StatusForbidden,
	apperr.NotFound:        http.StatusNotFound,
	apperr.InvalidState:    http.StatusBadRequest,
	apperr.InvalidQuantity: http.StatusBadRequest,
	apperr.ValidationError: http.StatusUnprocessableEntity,
	apperr.InvalidTarget:   http.StatusUnprocessableEntity,
	apperr.Conflict:        http.StatusConflict,
	apperr.Locked:          http.StatusLocked,
	apperr.Internal:        http.StatusInternalServerError,
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   apperr.Kind `json:"error"`
	Message string      `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// writeError renders err.  Internal errors never expose their cause.
func writeError(c echo.Context, err error) error {
	e := apperr.From(err)
	return c.JSON(StatusFor(e.Kind), errorBody{Error: e.Kind, Message: e.Message})
}

// badRequest reports a body or parameter that could not be decoded.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: apperr.ValidationError, Message: msg})
}

// ErrorHandler renders errors returned by handlers and echo itself (unknown
// routes, wrong methods, oversized bodies) in the API's error format.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := apperr.Internal
		switch he.Code {
		case http.StatusNotFound:
			kind = apperr.NotFound
		case http.StatusUnauthorized:
			kind = apperr.Unauthorized
		case http.StatusForbidden:
			kind = apperr.Forbidden
		case http.StatusMethodNotAllowed, http.StatusBadRequest, http.StatusRequestEntityTooLarge:
			kind = apperr.ValidationError
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(he.Code, errorBody{Error: kind, Message: msg})
		return
	}
	_ = writeError(c, err)
}
