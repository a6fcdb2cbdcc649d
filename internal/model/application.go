package model

import "time"

// ApplicationStatus is the state of a seller verification request.
// PENDING moves to APPROVED or DENIED exactly once; both are terminal.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationDenied   ApplicationStatus = "DENIED"
)

// Terminal reports whether no further transition is legal.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationDenied
}

// SellerApplication links a user to the suite they claim to own.
type SellerApplication struct {
	ID           uint64            `json:"id"`
	UserID       uint64            `json:"user_id"`
	SuiteID      uint64            `json:"suite_id"`
	LegalName    string            `json:"legal_name"`
	Phone        string            `json:"phone"`
	Message      string            `json:"message"`
	InviteCode   *string           `json:"invite_code,omitempty"`
	Status       ApplicationStatus `json:"status"`
	DecidedBy    *uint64           `json:"decided_by,omitempty"`
	DecisionNote *string           `json:"decision_note,omitempty"`
	DecidedAt    *time.Time        `json:"decided_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
