package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/authz"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// Thread groups the messages one user exchanged with one counterpart about
// one listing.
type Thread struct {
	ListingID      uint64          `json:"listing_id"`
	CounterpartID  uint64          `json:"counterpart_id"`
	Messages       []model.Message `json:"messages"`
	Unread         int             `json:"unread"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

// ThreadList is the result of ListThreads.  Unread counts every unread
// message addressed to the caller, whatever the filter.
type ThreadList struct {
	Threads []Thread `json:"threads"`
	Unread  int      `json:"unread"`
}

// SendMessage posts a message on a listing.  Anyone but the seller writes
// to the seller; the seller replies to the latest inbound message on the
// listing, optionally restricted to the buyer replyTo.
func (s *Service) SendMessage(ctx context.Context, id identity.Identity, listingID uint64, body string, replyTo uint64) (model.Message, error) {
	var m model.Message
	err := s.mutate(ctx, authz.SendMessage, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		body, err := textField("message body", body, 10, 1000)
		if err != nil {
			return err
		}
		l, err := tx.GetListing(ctx, listingID)
		if err != nil {
			return notFound(err, "listing")
		}
		if !visible(id, l) {
			return apperr.New(apperr.NotFound, "listing not found")
		}

		to := l.SellerID
		if actor.ID == l.SellerID {
			last, err := tx.LatestInboundMessage(ctx, l.ID, actor.ID, replyTo)
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.New(apperr.InvalidTarget, "no conversation to reply to")
			}
			if err != nil {
				return err
			}
			to = last.FromUserID
		}
		if to == actor.ID {
			return apperr.New(apperr.ValidationError, "cannot send a message to yourself")
		}

		m = model.Message{ListingID: l.ID, FromUserID: actor.ID, ToUserID: to, Body: body}
		if err := tx.CreateMessage(ctx, &m); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionMessageSent,
			TargetType: audit.TargetMessage,
			TargetID:   m.ID,
			Metadata:   map[string]any{"listing_id": l.ID, "to_user_id": to},
		})
		fx.notify(queue.Notification{
			Kind:       queue.KindMessageReceived,
			UserID:     to,
			Subject:    "New message about \"" + l.EventTitle + "\"",
			TargetType: audit.TargetMessage,
			TargetID:   m.ID,
		})
		return nil
	})
	return m, err
}

// MarkRead marks one message addressed to the caller as read.  Marking an
// already read message is a no-op.
func (s *Service) MarkRead(ctx context.Context, id identity.Identity, messageID uint64) (model.Message, error) {
	var m model.Message
	err := s.mutate(ctx, authz.MarkRead, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		var err error
		if m, err = tx.GetMessage(ctx, messageID); err != nil {
			return notFound(err, "message")
		}
		if m.ToUserID != actor.ID {
			return apperr.New(apperr.Forbidden, "only the recipient may mark a message as read")
		}
		if m.IsRead {
			return nil
		}
		flipped, err := tx.MarkMessageRead(ctx, messageID, actor.ID, s.clock())
		if err != nil {
			return err
		}
		if m, err = tx.GetMessage(ctx, messageID); err != nil {
			return err
		}
		if flipped {
			fx.record(audit.Entry{Action: audit.ActionMessageRead, TargetType: audit.TargetMessage, TargetID: m.ID})
		}
		return nil
	})
	return m, err
}

// MarkAllRead marks every unread message addressed to the caller and
// returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, id identity.Identity) (int64, error) {
	var n int64
	err := s.mutate(ctx, authz.MarkRead, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		var err error
		if n, err = tx.MarkAllMessagesRead(ctx, actor.ID, s.clock()); err != nil {
			return err
		}
		if n > 0 {
			fx.record(audit.Entry{
				Action:     audit.ActionMessagesReadAll,
				TargetType: audit.TargetUser,
				TargetID:   actor.ID,
				Metadata:   map[string]any{"count": n},
			})
		}
		return nil
	})
	return n, err
}

// ListThreads groups the caller's messages by listing and counterpart.
// Threads are ordered by latest activity, messages within a thread by
// creation time.
func (s *Service) ListThreads(ctx context.Context, id identity.Identity, dir repository.MessageDirection) (ThreadList, error) {
	switch dir {
	case "":
		dir = repository.DirectionAll
	case repository.DirectionInbox, repository.DirectionSent, repository.DirectionAll:
	default:
		return ThreadList{}, apperr.New(apperr.ValidationError, "filter must be inbox, sent or all")
	}
	var (
		msgs   []model.Message
		unread int
	)
	err := s.read(ctx, authz.ListMessages, id, func(tx repository.Tx) error {
		var err error
		if msgs, err = tx.ListMessagesForUser(ctx, id.UserID, dir); err != nil {
			return err
		}
		unread, err = tx.CountUnread(ctx, id.UserID)
		return err
	})
	if err != nil {
		return ThreadList{}, err
	}
	return ThreadList{Threads: groupThreads(id.UserID, msgs), Unread: unread}, nil
}

type threadKey struct{ listing, counterpart uint64 }

func groupThreads(userID uint64, msgs []model.Message) []Thread {
	index := map[threadKey]int{}
	threads := []Thread{}
	lastID := map[threadKey]uint64{}
	for _, m := range msgs {
		other := m.ToUserID
		if other == userID {
			other = m.FromUserID
		}
		k := threadKey{m.ListingID, other}
		i, ok := index[k]
		if !ok {
			i = len(threads)
			index[k] = i
			threads = append(threads, Thread{ListingID: m.ListingID, CounterpartID: other})
		}
		t := &threads[i]
		t.Messages = append(t.Messages, m)
		if m.ToUserID == userID && !m.IsRead {
			t.Unread++
		}
		if !m.CreatedAt.Before(t.LastActivityAt) {
			t.LastActivityAt = m.CreatedAt
		}
		if m.ID > lastID[k] {
			lastID[k] = m.ID
		}
	}
	for i := range threads {
		sort.SliceStable(threads[i].Messages, func(a, b int) bool {
			ma, mb := threads[i].Messages[a], threads[i].Messages[b]
			if !ma.CreatedAt.Equal(mb.CreatedAt) {
				return ma.CreatedAt.Before(mb.CreatedAt)
			}
			return ma.ID < mb.ID
		})
	}
	sort.SliceStable(threads, func(a, b int) bool {
		ta, tb := threads[a], threads[b]
		if !ta.LastActivityAt.Equal(tb.LastActivityAt) {
			return ta.LastActivityAt.After(tb.LastActivityAt)
		}
		return lastID[threadKey{ta.ListingID, ta.CounterpartID}] > lastID[threadKey{tb.ListingID, tb.CounterpartID}]
	})
	return threads
}
