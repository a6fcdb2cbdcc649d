package model

import "time"

// Message is a single buyer/seller note about a listing.  Messages are
// stored flat; the (listing, counterpart) pair groups them into a thread
// at read time.
type Message struct {
	ID         uint64     `json:"id"`
	ListingID  uint64     `json:"listing_id"`
	FromUserID uint64     `json:"from_user_id"`
	ToUserID   uint64     `json:"to_user_id"`
	Body       string     `json:"body"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
