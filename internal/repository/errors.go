// Package repository defines the persistence ports used by the marketplace
// engine and their MySQL implementation.  Sentinel errors below allow the
// engine to classify failures without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the referenced row does not exist.  The
// engine translates it into a NotFound result for the caller.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an address that is already
// in use.  Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
