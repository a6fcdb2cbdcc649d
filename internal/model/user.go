package model

import "time"

// Role is the single authorization axis of the marketplace.  A user's role
// only moves upward from GUEST through seller verification; APPROVER and
// ADMIN are provisioned out of band.
type Role string

const (
	RoleGuest    Role = "GUEST"
	RoleSeller   Role = "SELLER"
	RoleApprover Role = "APPROVER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleSeller, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

// User represents an account record as stored in the `users` table.
//
// Fields:
//
//	ID              – primary key identifier of the user.
//	Email           – unique, lower-cased email address.
//	PasswordHash    – bcrypt hash used by the login endpoint.
//	Role            – GUEST, SELLER, APPROVER or ADMIN.
//	IsLocked        – locked accounts may read but never mutate state.
//	ShowInDirectory – whether the user opted in to the member directory.
//	CreatedAt       – timestamp of creation.
//	UpdatedAt       – timestamp of last update.
type User struct {
	ID              uint64    // users.id
	Email           string    // users.email
	PasswordHash    string    // users.password_hash
	Role            Role      // users.role
	IsLocked        bool      // users.is_locked
	ShowInDirectory bool      // users.show_in_directory
	CreatedAt       time.Time // users.created_at
	UpdatedAt       time.Time // users.updated_at
}
