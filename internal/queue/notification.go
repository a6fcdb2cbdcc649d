// Package queue carries user notifications from the engine to the message
// broker and from the broker to the notification log.
package queue

import (
	"context"
	"time"
)

// Kind is the routing key of a notification.
type Kind string

const (
	KindApplicationDecided Kind = "application.decided"
	KindListingModerated   Kind = "listing.moderated"
	KindMessageReceived    Kind = "message.received"
	KindReplyPosted        Kind = "discussion.reply"
)

// Notification is published after a committed state change that concerns
// another user.  It holds enough context for a consumer to render a
// message without querying the primary database.
type Notification struct {
	Kind       Kind      `json:"kind"`
	UserID     uint64    `json:"user_id"`
	Subject    string    `json:"subject"`
	TargetType string    `json:"target_type"`
	TargetID   uint64    `json:"target_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier dispatches notifications.  Implementations never block the
// caller on the broker and never report failures back to it.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }
