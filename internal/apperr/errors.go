// Package apperr defines the error taxonomy returned across the engine
// boundary.  Every error carries a stable Kind and a human-readable message
// that transports must preserve verbatim.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	Unauthorized    Kind = "UNAUTHORIZED"
	Forbidden       Kind = "FORBIDDEN"
	NotFound        Kind = "NOT_FOUND"
	InvalidState    Kind = "INVALID_STATE"
	InvalidQuantity Kind = "INVALID_QUANTITY"
	ValidationError Kind = "VALIDATION_ERROR"
	InvalidTarget   Kind = "INVALID_TARGET"
	Conflict        Kind = "CONFLICT"
	Locked          Kind = "LOCKED"
	Internal        Kind = "INTERNAL"
)

// Error is the tagged result of a failed operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf returns the kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// From converts any error to an *Error, wrapping unknown failures as
// Internal with a generic message.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, err, "internal error")
}
