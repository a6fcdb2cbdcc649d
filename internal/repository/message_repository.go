package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// MessageRepo provides access to the messages table.  The read flag only
// ever moves from 0 to 1 and only for the recipient's own rows.
type MessageRepo struct{ q Querier }

func NewMessageRepo(q Querier) *MessageRepo { return &MessageRepo{q: q} }

const messageColumns = "id, listing_id, from_user_id, to_user_id, body, is_read, read_at, created_at"

// CreateMessage inserts m with is_read = 0.
func (r *MessageRepo) CreateMessage(ctx context.Context, m *model.Message) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO messages (listing_id, from_user_id, to_user_id, body, is_read, created_at) VALUES (?,?,?,?,0,?)",
		m.ListingID, m.FromUserID, m.ToUserID, m.Body, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.IsRead = false
	m.CreatedAt = now
	return nil
}

// GetMessage returns a message or ErrNotFound.
func (r *MessageRepo) GetMessage(ctx context.Context, id uint64) (model.Message, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id=?", id)
	m, err := scanMessage(row)
	return m, notFound(err)
}

// LatestInboundMessage returns the newest message on a listing addressed to
// recipientID.  fromUserID narrows the search to one sender when non-zero.
func (r *MessageRepo) LatestInboundMessage(ctx context.Context, listingID, recipientID, fromUserID uint64) (model.Message, error) {
	q := "SELECT " + messageColumns + " FROM messages WHERE listing_id=? AND to_user_id=?"
	args := []any{listingID, recipientID}
	if fromUserID != 0 {
		q += " AND from_user_id=?"
		args = append(args, fromUserID)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT 1"
	m, err := scanMessage(r.q.QueryRowContext(ctx, q, args...))
	return m, notFound(err)
}

// MarkMessageRead flips a single unread message addressed to recipientID.
func (r *MessageRepo) MarkMessageRead(ctx context.Context, id, recipientID uint64, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE messages SET is_read=1, read_at=? WHERE id=? AND to_user_id=? AND is_read=0",
		at, id, recipientID))
}

// MarkAllMessagesRead flips every unread message addressed to recipientID
// and returns how many changed.
func (r *MessageRepo) MarkAllMessagesRead(ctx context.Context, recipientID uint64, at time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"UPDATE messages SET is_read=1, read_at=? WHERE to_user_id=? AND is_read=0", at, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMessagesForUser returns the user's messages in creation order.
func (r *MessageRepo) ListMessagesForUser(ctx context.Context, userID uint64, dir MessageDirection) ([]model.Message, error) {
	var where string
	args := []any{userID}
	switch dir {
	case DirectionInbox:
		where = "to_user_id=?"
	case DirectionSent:
		where = "from_user_id=?"
	case DirectionAll, "":
		where = "(to_user_id=? OR from_user_id=?)"
		args = append(args, userID)
	default:
		return nil, fmt.Errorf("unknown message direction %q", dir)
	}
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE "+where+" ORDER BY created_at ASC, id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountUnread counts unread messages addressed to recipientID.
func (r *MessageRepo) CountUnread(ctx context.Context, recipientID uint64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE to_user_id=? AND is_read=0", recipientID).Scan(&n)
	return n, err
}

func scanMessage(s scanner) (model.Message, error) {
	var m model.Message
	var readAt sql.NullTime
	if err := s.Scan(&m.ID, &m.ListingID, &m.FromUserID, &m.ToUserID, &m.Body, &m.IsRead, &readAt, &m.CreatedAt); err != nil {
		return model.Message{}, err
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return m, nil
}
