package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// DiscussionRepo provides access to discussions and their replies.
// reply_count is maintained in the same transaction as the reply row.
type DiscussionRepo struct{ q Querier }

func NewDiscussionRepo(q Querier) *DiscussionRepo { return &DiscussionRepo{q: q} }

const discussionColumns = `id, author_id, title, content, is_locked, view_count, reply_count,
       last_activity_at, created_at, updated_at`

// CreateDiscussion inserts d and populates ID and timestamps.
func (r *DiscussionRepo) CreateDiscussion(ctx context.Context, d *model.Discussion) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO discussions (author_id, title, content, is_locked, view_count, reply_count, last_activity_at, created_at, updated_at)
		 VALUES (?,?,?,0,0,0,?,?,?)`,
		d.AuthorID, d.Title, d.Content, now, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	d.LastActivityAt, d.CreatedAt, d.UpdatedAt = now, now, now
	return nil
}

// GetDiscussion returns a discussion or ErrNotFound.
func (r *DiscussionRepo) GetDiscussion(ctx context.Context, id uint64) (model.Discussion, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+discussionColumns+" FROM discussions WHERE id=?", id)
	d, err := scanDiscussion(row)
	return d, notFound(err)
}

// ListDiscussions returns discussions by most recent activity.
func (r *DiscussionRepo) ListDiscussions(ctx context.Context, limit, offset int) ([]model.Discussion, error) {
	limit, offset = pageBounds(limit, offset)
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+discussionColumns+" FROM discussions ORDER BY last_activity_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Discussion{}
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// IncrementReplyCount accounts for a new reply on an unlocked discussion.
func (r *DiscussionRepo) IncrementReplyCount(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		`UPDATE discussions SET reply_count = reply_count + 1, last_activity_at = ?, updated_at = ?
		 WHERE id = ? AND is_locked = 0`, at, at, id))
}

// DecrementReplyCount accounts for a deleted reply.
func (r *DiscussionRepo) DecrementReplyCount(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE discussions SET reply_count = reply_count - 1, updated_at = ? WHERE id = ? AND reply_count > 0",
		at, id))
}

// SetDiscussionLocked changes the lock flag and reports whether it moved.
func (r *DiscussionRepo) SetDiscussionLocked(ctx context.Context, id uint64, locked bool, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE discussions SET is_locked = ?, updated_at = ? WHERE id = ? AND is_locked <> ?",
		locked, at, id, locked))
}

// IncrementDiscussionViews bumps the view counter.
func (r *DiscussionRepo) IncrementDiscussionViews(ctx context.Context, id uint64) (bool, error) {
	return affected(r.q.ExecContext(ctx, "UPDATE discussions SET view_count = view_count + 1 WHERE id = ?", id))
}

// CreateReply inserts a reply and populates ID and CreatedAt.
func (r *DiscussionRepo) CreateReply(ctx context.Context, reply *model.DiscussionReply) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO discussion_replies (discussion_id, author_id, content, created_at) VALUES (?,?,?,?)",
		reply.DiscussionID, reply.AuthorID, reply.Content, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reply.ID = uint64(id)
	reply.CreatedAt = now
	return nil
}

// GetReply returns a reply, deleted or not, or ErrNotFound.
func (r *DiscussionRepo) GetReply(ctx context.Context, id uint64) (model.DiscussionReply, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT id, discussion_id, author_id, content, deleted_at, created_at FROM discussion_replies WHERE id=?", id)
	reply, err := scanReply(row)
	return reply, notFound(err)
}

// SoftDeleteReply marks a live reply as deleted.
func (r *DiscussionRepo) SoftDeleteReply(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE discussion_replies SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", at, id))
}

// ListReplies returns the live replies of a discussion in posting order.
func (r *DiscussionRepo) ListReplies(ctx context.Context, discussionID uint64) ([]model.DiscussionReply, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, discussion_id, author_id, content, deleted_at, created_at FROM discussion_replies
		 WHERE discussion_id = ? AND deleted_at IS NULL ORDER BY created_at ASC, id ASC`, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.DiscussionReply{}
	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reply)
	}
	return out, rows.Err()
}

func scanDiscussion(s scanner) (model.Discussion, error) {
	var d model.Discussion
	if err := s.Scan(&d.ID, &d.AuthorID, &d.Title, &d.Content, &d.IsLocked, &d.ViewCount, &d.ReplyCount,
		&d.LastActivityAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return model.Discussion{}, err
	}
	return d, nil
}

func scanReply(s scanner) (model.DiscussionReply, error) {
	var reply model.DiscussionReply
	var deletedAt sql.NullTime
	if err := s.Scan(&reply.ID, &reply.DiscussionID, &reply.AuthorID, &reply.Content, &deletedAt, &reply.CreatedAt); err != nil {
		return model.DiscussionReply{}, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		reply.DeletedAt = &t
	}
	return reply, nil
}
