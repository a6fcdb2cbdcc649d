// Package identity carries the resolved caller of an operation.  The engine
// never authenticates; it only consumes the (user, role) pair produced by
// the transport layer.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// Identity is the opaque caller handed to every engine operation.
type Identity struct {
	UserID uint64
	Role   model.Role
}

// Anonymous returns the identity used when no credentials were supplied.
// It behaves like a GUEST on read paths.
func Anonymous() Identity { return Identity{Role: model.RoleGuest} }

// New builds an authenticated identity.
func New(userID uint64, role model.Role) Identity {
	return Identity{UserID: userID, Role: role}
}

// Authenticated reports whether the identity belongs to a real user.
func (i Identity) Authenticated() bool { return i.UserID != 0 }

// Is reports whether the identity holds one of the given roles.
func (i Identity) Is(roles ...model.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

func (i Identity) String() string {
	if !i.Authenticated() {
		return "anonymous"
	}
	return fmt.Sprintf("user:%d(%s)", i.UserID, i.Role)
}

// ParseRole normalises a role claim.
func ParseRole(s string) (model.Role, error) {
	r := model.Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type ctxKey struct{}

// WithContext stores id on ctx.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored on ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Anonymous()
	}
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}
