package service

import (
	"context"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/authz"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// DiscussionView is a discussion with its live replies.
type DiscussionView struct {
	Discussion model.Discussion        `json:"discussion"`
	Replies    []model.DiscussionReply `json:"replies"`
}

// CreateDiscussion opens a thread on the board.
func (s *Service) CreateDiscussion(ctx context.Context, id identity.Identity, title, content string) (model.Discussion, error) {
	var d model.Discussion
	err := s.mutate(ctx, authz.CreateDiscussion, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		title, err := textField("title", title, 5, 200)
		if err != nil {
			return err
		}
		content, err := textField("content", content, 10, 5000)
		if err != nil {
			return err
		}
		d = model.Discussion{AuthorID: actor.ID, Title: title, Content: content}
		if err := tx.CreateDiscussion(ctx, &d); err != nil {
			return err
		}
		fx.record(audit.Entry{Action: audit.ActionDiscussionCreated, TargetType: audit.TargetDiscussion, TargetID: d.ID})
		return nil
	})
	return d, err
}

// PostReply adds a reply to an unlocked discussion.  The counter update
// and the reply row are written in one transaction; the counter update is
// conditional on the discussion being unlocked, so a reply can never land
// on a locked discussion.
func (s *Service) PostReply(ctx context.Context, id identity.Identity, discussionID uint64, content string) (model.DiscussionReply, error) {
	var r model.DiscussionReply
	err := s.mutate(ctx, authz.PostReply, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		content, err := textField("reply", content, 10, 2000)
		if err != nil {
			return err
		}
		ok, err := tx.IncrementReplyCount(ctx, discussionID, s.clock())
		if err != nil {
			return err
		}
		if !ok {
			if _, err := tx.GetDiscussion(ctx, discussionID); err != nil {
				return notFound(err, "discussion")
			}
			return apperr.New(apperr.Locked, "discussion is locked")
		}
		d, err := tx.GetDiscussion(ctx, discussionID)
		if err != nil {
			return err
		}
		r = model.DiscussionReply{DiscussionID: discussionID, AuthorID: actor.ID, Content: content}
		if err := tx.CreateReply(ctx, &r); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionReplyCreated,
			TargetType: audit.TargetReply,
			TargetID:   r.ID,
			Metadata:   map[string]any{"discussion_id": discussionID},
		})
		if d.AuthorID != actor.ID {
			fx.notify(queue.Notification{
				Kind:       queue.KindReplyPosted,
				UserID:     d.AuthorID,
				Subject:    "New reply on \"" + d.Title + "\"",
				TargetType: audit.TargetDiscussion,
				TargetID:   d.ID,
			})
		}
		return nil
	})
	return r, err
}

// DeleteReply soft-deletes a reply and decrements the discussion's
// counter.  Only the reply's author or an admin may delete it.
func (s *Service) DeleteReply(ctx context.Context, id identity.Identity, replyID uint64) error {
	return s.mutate(ctx, authz.DeleteReply, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		r, err := tx.GetReply(ctx, replyID)
		if err != nil {
			return notFound(err, "reply")
		}
		if r.DeletedAt != nil {
			return apperr.New(apperr.NotFound, "reply not found")
		}
		if !authz.OwnerOrAdmin(id, r.AuthorID) {
			return apperr.New(apperr.Forbidden, "only the author or an admin may delete this reply")
		}
		now := s.clock()
		ok, err := tx.SoftDeleteReply(ctx, replyID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.NotFound, "reply not found")
		}
		if _, err := tx.DecrementReplyCount(ctx, r.DiscussionID, now); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionReplyDeleted,
			TargetType: audit.TargetReply,
			TargetID:   r.ID,
			Metadata:   map[string]any{"discussion_id": r.DiscussionID, "author_id": r.AuthorID},
		})
		return nil
	})
}

// LockDiscussion locks or unlocks a discussion.  Setting the current state
// again is a no-op.
func (s *Service) LockDiscussion(ctx context.Context, id identity.Identity, discussionID uint64, locked bool) (model.Discussion, error) {
	var d model.Discussion
	err := s.mutate(ctx, authz.LockDiscussion, id, func(tx repository.Tx, _ model.User, fx *effects) error {
		if _, err := tx.GetDiscussion(ctx, discussionID); err != nil {
			return notFound(err, "discussion")
		}
		changed, err := tx.SetDiscussionLocked(ctx, discussionID, locked, s.clock())
		if err != nil {
			return err
		}
		if d, err = tx.GetDiscussion(ctx, discussionID); err != nil {
			return err
		}
		if changed {
			action := audit.ActionDiscussionUnlocked
			if locked {
				action = audit.ActionDiscussionLocked
			}
			fx.record(audit.Entry{Action: action, TargetType: audit.TargetDiscussion, TargetID: d.ID})
		}
		return nil
	})
	return d, err
}

// ListDiscussions returns discussions by latest activity.  It is public.
func (s *Service) ListDiscussions(ctx context.Context, limit, offset int) ([]model.Discussion, error) {
	var out []model.Discussion
	err := s.read(ctx, "", identity.Anonymous(), func(tx repository.Tx) error {
		var err error
		out, err = tx.ListDiscussions(ctx, limit, offset)
		return err
	})
	return out, err
}

// ViewDiscussion returns a discussion with its live replies and counts the
// view on a best-effort basis.
func (s *Service) ViewDiscussion(ctx context.Context, discussionID uint64) (DiscussionView, error) {
	var v DiscussionView
	err := s.read(ctx, "", identity.Anonymous(), func(tx repository.Tx) error {
		var err error
		if v.Discussion, err = tx.GetDiscussion(ctx, discussionID); err != nil {
			return notFound(err, "discussion")
		}
		v.Replies, err = tx.ListReplies(ctx, discussionID)
		return err
	})
	if err != nil {
		return DiscussionView{}, err
	}
	if s.bumpViews(ctx, audit.TargetDiscussion, discussionID, func(tx repository.Tx) (bool, error) {
		return tx.IncrementDiscussionViews(ctx, discussionID)
	}) {
		v.Discussion.ViewCount++
	}
	return v, nil
}
