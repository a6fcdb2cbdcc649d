package model

import "time"

// Discussion is a public thread on the suite owners' board.
// ReplyCount always equals the number of non-deleted replies.
type Discussion struct {
	ID             uint64    `json:"id"`
	AuthorID       uint64    `json:"author_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	IsLocked       bool      `json:"is_locked"`
	ViewCount      int64     `json:"view_count"`
	ReplyCount     int       `json:"reply_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DiscussionReply is a single answer in a discussion.  Deleted replies are
// kept with DeletedAt set and no longer counted.
type DiscussionReply struct {
	ID           uint64     `json:"id"`
	DiscussionID uint64     `json:"discussion_id"`
	AuthorID     uint64     `json:"author_id"`
	Content      string     `json:"content"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
