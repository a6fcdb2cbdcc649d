package repository

import (
	"context"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// Store is the transactional persistence boundary of the engine.  InTx runs
// fn inside a single read-write transaction and commits only when fn
// returns nil; View runs fn inside a read-only transaction.  AppendAudit is
// deliberately outside any transaction so an audit failure never rolls
// back the primary write.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	AuditSink
}

// AuditSink persists audit events.
type AuditSink interface {
	AppendAudit(ctx context.Context, e *model.AuditEvent) error
}

// Tx groups every per-entity primitive available inside a transaction.
type Tx interface {
	UserTx
	SuiteTx
	ApplicationTx
	ListingTx
	MessageTx
	DiscussionTx
	AuditReader
}

// UserTx covers the users table.
type UserTx interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uint64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	// GetUserForUpdate locks the row until the transaction ends.
	GetUserForUpdate(ctx context.Context, id uint64) (model.User, error)
	// UpgradeUserRole moves the role from -> to and reports whether the
	// row was still at from.
	UpgradeUserRole(ctx context.Context, id uint64, from, to model.Role) (bool, error)
	SetUserLocked(ctx context.Context, id uint64, locked bool) (bool, error)
}

// SuiteTx covers the read-only suites table.
type SuiteTx interface {
	GetSuite(ctx context.Context, id uint64) (model.Suite, error)
	ListSuites(ctx context.Context) ([]model.Suite, error)
}

// ApplicationFilter narrows ListApplications.  Zero values match all.
type ApplicationFilter struct {
	UserID uint64
	Status model.ApplicationStatus
}

// ApplicationDecision is the compare-and-set applied by DecideApplication.
type ApplicationDecision struct {
	ID        uint64
	Status    model.ApplicationStatus
	DecidedBy uint64
	Note      *string
	At        time.Time
}

// ApplicationTx covers seller_applications.
type ApplicationTx interface {
	CreateApplication(ctx context.Context, a *model.SellerApplication) error
	GetApplication(ctx context.Context, id uint64) (model.SellerApplication, error)
	// FindOpenApplication returns the PENDING or APPROVED application of
	// userID for suiteID, or ErrNotFound.
	FindOpenApplication(ctx context.Context, userID, suiteID uint64) (model.SellerApplication, error)
	// DecideApplication applies d only while the row is PENDING and
	// reports whether it did.
	DecideApplication(ctx context.Context, d ApplicationDecision) (bool, error)
	HasApprovedApplication(ctx context.Context, userID, suiteID uint64) (bool, error)
	ListApplications(ctx context.Context, f ApplicationFilter) ([]model.SellerApplication, error)
}

// ListingFilter narrows ListListings.  Statuses empty means every status
// except MODERATED.
type ListingFilter struct {
	SuiteID  uint64
	SellerID uint64
	Statuses []model.ListingStatus
	Limit    int
	Offset   int
}

// ListingTx covers listings.
type ListingTx interface {
	CreateListing(ctx context.Context, l *model.Listing) error
	GetListing(ctx context.Context, id uint64) (model.Listing, error)
	// GetListingForUpdate reads the latest committed row and locks it.
	GetListingForUpdate(ctx context.Context, id uint64) (model.Listing, error)
	// UpdateListingDetails changes price and notes of an ACTIVE listing.
	UpdateListingDetails(ctx context.Context, id uint64, priceCents int64, notes string, at time.Time) (bool, error)
	// DecrementListingQuantity subtracts n from an ACTIVE listing holding at
	// least n tickets, moving it to SOLD when nothing remains.  It reports
	// whether the compare-and-set matched.
	DecrementListingQuantity(ctx context.Context, id uint64, n int, at time.Time) (bool, error)
	// TransitionListing moves the listing to `to` when its status is one of
	// from and reports whether it did.
	TransitionListing(ctx context.Context, id uint64, from []model.ListingStatus, to model.ListingStatus, reason *string, at time.Time) (bool, error)
	IncrementListingViews(ctx context.Context, id uint64) (bool, error)
	ListListings(ctx context.Context, f ListingFilter) ([]model.Listing, error)
}

// MessageDirection selects which side of the conversation to list.
type MessageDirection string

const (
	DirectionInbox MessageDirection = "inbox"
	DirectionSent  MessageDirection = "sent"
	DirectionAll   MessageDirection = "all"
)

// MessageTx covers messages.
type MessageTx interface {
	CreateMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, id uint64) (model.Message, error)
	// LatestInboundMessage returns the newest message on listingID sent to
	// recipientID, optionally restricted to sender fromUserID (0 = any).
	LatestInboundMessage(ctx context.Context, listingID, recipientID, fromUserID uint64) (model.Message, error)
	MarkMessageRead(ctx context.Context, id, recipientID uint64, at time.Time) (bool, error)
	MarkAllMessagesRead(ctx context.Context, recipientID uint64, at time.Time) (int64, error)
	ListMessagesForUser(ctx context.Context, userID uint64, dir MessageDirection) ([]model.Message, error)
	CountUnread(ctx context.Context, recipientID uint64) (int, error)
}

// DiscussionTx covers discussions and discussion_replies.
type DiscussionTx interface {
	CreateDiscussion(ctx context.Context, d *model.Discussion) error
	GetDiscussion(ctx context.Context, id uint64) (model.Discussion, error)
	ListDiscussions(ctx context.Context, limit, offset int) ([]model.Discussion, error)
	// IncrementReplyCount bumps reply_count and last_activity_at of an
	// unlocked discussion and reports whether it did.
	IncrementReplyCount(ctx context.Context, id uint64, at time.Time) (bool, error)
	DecrementReplyCount(ctx context.Context, id uint64, at time.Time) (bool, error)
	SetDiscussionLocked(ctx context.Context, id uint64, locked bool, at time.Time) (bool, error)
	IncrementDiscussionViews(ctx context.Context, id uint64) (bool, error)
	CreateReply(ctx context.Context, r *model.DiscussionReply) error
	GetReply(ctx context.Context, id uint64) (model.DiscussionReply, error)
	SoftDeleteReply(ctx context.Context, id uint64, at time.Time) (bool, error)
	ListReplies(ctx context.Context, discussionID uint64) ([]model.DiscussionReply, error)
}

// AuditFilter narrows ListAuditEvents.
type AuditFilter struct {
	Action     string
	TargetType string
	TargetID   uint64
	Limit      int
}

// AuditReader reads the audit trail; it never mutates it.
type AuditReader interface {
	ListAuditEvents(ctx context.Context, f AuditFilter) ([]model.AuditEvent, error)
}
