// Package authz holds the capability table consulted before every engine
// operation.  Roles are a flat enum; each operation lists the roles allowed
// to attempt it.  Ownership rules that need the target entity are enforced
// by the engine after loading it.
package authz

import (
	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
)

// Operation names a guarded engine operation.
type Operation string

const (
	SubmitApplication Operation = "application.submit"
	DecideApplication Operation = "application.decide"
	ListApplications  Operation = "application.list"
	MyApplications    Operation = "application.mine"

	CreateListing   Operation = "listing.create"
	UpdateListing   Operation = "listing.update"
	RecordSale      Operation = "listing.sale"
	WithdrawListing Operation = "listing.withdraw"
	ModerateListing Operation = "listing.moderate"

	SendMessage  Operation = "message.send"
	MarkRead     Operation = "message.read"
	ListMessages Operation = "message.list"

	CreateDiscussion Operation = "discussion.create"
	PostReply        Operation = "discussion.reply"
	DeleteReply      Operation = "discussion.reply.delete"
	LockDiscussion   Operation = "discussion.lock"

	LockUser  Operation = "user.lock"
	ListAudit Operation = "audit.list"
)

// rule describes who may attempt an operation.  A nil role list means any
// authenticated caller.
type rule struct {
	roles []model.Role
}

var (
	anyone  = rule{}
	members = rule{roles: []model.Role{model.RoleSeller, model.RoleApprover, model.RoleAdmin}}
	staff   = rule{roles: []model.Role{model.RoleApprover, model.RoleAdmin}}
	admins  = rule{roles: []model.Role{model.RoleAdmin}}
)

var table = map[Operation]rule{
	SubmitApplication: {roles: []model.Role{model.RoleGuest, model.RoleSeller}},
	DecideApplication: staff,
	ListApplications:  staff,
	MyApplications:    anyone,

	CreateListing:   anyone,
	UpdateListing:   anyone,
	RecordSale:      anyone,
	WithdrawListing: anyone,
	ModerateListing: admins,

	SendMessage:  anyone,
	MarkRead:     anyone,
	ListMessages: anyone,

	CreateDiscussion: members,
	PostReply:        members,
	DeleteReply:      members,
	LockDiscussion:   admins,

	LockUser:  admins,
	ListAudit: admins,
}

// Check returns nil when id may attempt op.  Anonymous callers get
// Unauthorized, callers with the wrong role get Forbidden.  Unknown
// operations are always forbidden.
func Check(op Operation, id identity.Identity) error {
	if !id.Authenticated() {
		return apperr.New(apperr.Unauthorized, "authentication required")
	}
	r, ok := table[op]
	if !ok {
		return apperr.New(apperr.Forbidden, "operation %s is not permitted", op)
	}
	if r.roles == nil || id.Is(r.roles...) {
		return nil
	}
	return apperr.New(apperr.Forbidden, "role %s may not perform %s", id.Role, op)
}

// OwnerOrAdmin reports whether id may act on a resource owned by ownerID.
func OwnerOrAdmin(id identity.Identity, ownerID uint64) bool {
	return id.UserID == ownerID || id.Role == model.RoleAdmin
}
