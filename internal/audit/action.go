// Package audit records the append-only trail of state changes.
package audit

// Action names a recorded state change.
type Action string

const (
	ActionApplicationCreated  Action = "SELLER_APPLICATION_CREATED"
	ActionApplicationApproved Action = "SELLER_APPLICATION_APPROVED"
	ActionApplicationDenied   Action = "SELLER_APPLICATION_DENIED"

	ActionListingCreated   Action = "LISTING_CREATED"
	ActionListingUpdated   Action = "LISTING_UPDATED"
	ActionListingSold      Action = "LISTING_MARKED_SOLD"
	ActionListingWithdrawn Action = "LISTING_WITHDRAWN"
	ActionListingModerated Action = "LISTING_MODERATED"

	ActionMessageSent     Action = "MESSAGE_SENT"
	ActionMessageRead     Action = "MESSAGE_READ"
	ActionMessagesReadAll Action = "MESSAGES_READ_ALL"

	ActionDiscussionCreated  Action = "DISCUSSION_CREATED"
	ActionReplyCreated       Action = "DISCUSSION_REPLY_CREATED"
	ActionReplyDeleted       Action = "DISCUSSION_REPLY_DELETED"
	ActionDiscussionLocked   Action = "DISCUSSION_LOCKED"
	ActionDiscussionUnlocked Action = "DISCUSSION_UNLOCKED"

	ActionUserLocked   Action = "USER_LOCKED"
	ActionUserUnlocked Action = "USER_UNLOCKED"
)

// Target types.
const (
	TargetApplication = "seller_application"
	TargetListing     = "listing"
	TargetMessage     = "message"
	TargetDiscussion  = "discussion"
	TargetReply       = "discussion_reply"
	TargetUser        = "user"
)
