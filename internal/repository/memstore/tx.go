package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// users

func (t *memTx) CreateUser(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range t.s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = t.nextID("users")
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	put(t, t.s.users, u.ID, *u)
	return nil
}

func (t *memTx) GetUser(_ context.Context, id uint64) (model.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (t *memTx) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range t.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (t *memTx) GetUserForUpdate(ctx context.Context, id uint64) (model.User, error) {
	return t.GetUser(ctx, id)
}

func (t *memTx) UpgradeUserRole(_ context.Context, id uint64, from, to model.Role) (bool, error) {
	u, ok := t.s.users[id]
	if !ok || u.Role != from {
		return false, nil
	}
	u.Role = to
	u.UpdatedAt = time.Now().UTC()
	put(t, t.s.users, id, u)
	return true, nil
}

func (t *memTx) SetUserLocked(_ context.Context, id uint64, locked bool) (bool, error) {
	u, ok := t.s.users[id]
	if !ok {
		return false, nil
	}
	u.IsLocked = locked
	u.UpdatedAt = time.Now().UTC()
	put(t, t.s.users, id, u)
	return true, nil
}

// suites

func (t *memTx) GetSuite(_ context.Context, id uint64) (model.Suite, error) {
	st, ok := t.s.suites[id]
	if !ok {
		return model.Suite{}, repository.ErrNotFound
	}
	return st, nil
}

func (t *memTx) ListSuites(context.Context) ([]model.Suite, error) {
	out := make([]model.Suite, 0, len(t.s.suites))
	for _, st := range t.s.suites {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Area != out[j].Area {
			return out[i].Area < out[j].Area
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

// seller applications

func (t *memTx) CreateApplication(_ context.Context, a *model.SellerApplication) error {
	a.ID = t.nextID("applications")
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	put(t, t.s.applications, a.ID, *a)
	return nil
}

func (t *memTx) GetApplication(_ context.Context, id uint64) (model.SellerApplication, error) {
	a, ok := t.s.applications[id]
	if !ok {
		return model.SellerApplication{}, repository.ErrNotFound
	}
	return a, nil
}

func (t *memTx) FindOpenApplication(_ context.Context, userID, suiteID uint64) (model.SellerApplication, error) {
	var found model.SellerApplication
	for _, a := range t.s.applications {
		if a.UserID != userID || a.SuiteID != suiteID {
			continue
		}
		if a.Status != model.ApplicationPending && a.Status != model.ApplicationApproved {
			continue
		}
		if a.ID > found.ID {
			found = a
		}
	}
	if found.ID == 0 {
		return model.SellerApplication{}, repository.ErrNotFound
	}
	return found, nil
}

func (t *memTx) DecideApplication(_ context.Context, d repository.ApplicationDecision) (bool, error) {
	a, ok := t.s.applications[d.ID]
	if !ok || a.Status != model.ApplicationPending {
		return false, nil
	}
	decidedBy := d.DecidedBy
	at := d.At
	a.Status = d.Status
	a.DecidedBy = &decidedBy
	a.DecisionNote = d.Note
	a.DecidedAt = &at
	a.UpdatedAt = d.At
	put(t, t.s.applications, a.ID, a)
	return true, nil
}

func (t *memTx) HasApprovedApplication(_ context.Context, userID, suiteID uint64) (bool, error) {
	for _, a := range t.s.applications {
		if a.UserID == userID && a.SuiteID == suiteID && a.Status == model.ApplicationApproved {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ListApplications(_ context.Context, f repository.ApplicationFilter) ([]model.SellerApplication, error) {
	out := []model.SellerApplication{}
	for _, a := range t.s.applications {
		if f.UserID != 0 && a.UserID != f.UserID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// listings

func (t *memTx) CreateListing(_ context.Context, l *model.Listing) error {
	l.ID = t.nextID("listings")
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	l.ViewCount = 0
	put(t, t.s.listings, l.ID, *l)
	return nil
}

func (t *memTx) GetListing(_ context.Context, id uint64) (model.Listing, error) {
	l, ok := t.s.listings[id]
	if !ok {
		return model.Listing{}, repository.ErrNotFound
	}
	return l, nil
}

func (t *memTx) GetListingForUpdate(ctx context.Context, id uint64) (model.Listing, error) {
	return t.GetListing(ctx, id)
}

func (t *memTx) UpdateListingDetails(_ context.Context, id uint64, priceCents int64, notes string, at time.Time) (bool, error) {
	l, ok := t.s.listings[id]
	if !ok || l.Status != model.ListingActive {
		return false, nil
	}
	l.PriceCents, l.Notes, l.UpdatedAt = priceCents, notes, at
	put(t, t.s.listings, id, l)
	return true, nil
}

func (t *memTx) DecrementListingQuantity(_ context.Context, id uint64, n int, at time.Time) (bool, error) {
	l, ok := t.s.listings[id]
	if !ok || l.Status != model.ListingActive || l.Quantity < n {
		return false, nil
	}
	l.Quantity -= n
	if l.Quantity == 0 {
		l.Status = model.ListingSold
	}
	l.UpdatedAt = at
	put(t, t.s.listings, id, l)
	return true, nil
}

func (t *memTx) TransitionListing(_ context.Context, id uint64, from []model.ListingStatus, to model.ListingStatus, reason *string, at time.Time) (bool, error) {
	l, ok := t.s.listings[id]
	if !ok {
		return false, nil
	}
	match := false
	for _, s := range from {
		if l.Status == s {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	l.Status = to
	if reason != nil {
		r := *reason
		l.ModerationReason = &r
	}
	l.UpdatedAt = at
	put(t, t.s.listings, id, l)
	return true, nil
}

func (t *memTx) IncrementListingViews(_ context.Context, id uint64) (bool, error) {
	l, ok := t.s.listings[id]
	if !ok {
		return false, nil
	}
	l.ViewCount++
	put(t, t.s.listings, id, l)
	return true, nil
}

func (t *memTx) ListListings(_ context.Context, f repository.ListingFilter) ([]model.Listing, error) {
	out := []model.Listing{}
	for _, l := range t.s.listings {
		if f.SuiteID != 0 && l.SuiteID != f.SuiteID {
			continue
		}
		if f.SellerID != 0 && l.SellerID != f.SellerID {
			continue
		}
		if !statusMatches(l.Status, f.Statuses) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func statusMatches(s model.ListingStatus, want []model.ListingStatus) bool {
	if len(want) == 0 {
		return s != model.ListingModerated
	}
	for _, w := range want {
		if s == w {
			return true
		}
	}
	return false
}

// messages

func (t *memTx) CreateMessage(_ context.Context, m *model.Message) error {
	m.ID = t.nextID("messages")
	m.IsRead = false
	m.ReadAt = nil
	m.CreatedAt = time.Now().UTC()
	put(t, t.s.messages, m.ID, *m)
	return nil
}

func (t *memTx) GetMessage(_ context.Context, id uint64) (model.Message, error) {
	m, ok := t.s.messages[id]
	if !ok {
		return model.Message{}, repository.ErrNotFound
	}
	return m, nil
}

func (t *memTx) LatestInboundMessage(_ context.Context, listingID, recipientID, fromUserID uint64) (model.Message, error) {
	var found model.Message
	for _, m := range t.s.messages {
		if m.ListingID != listingID || m.ToUserID != recipientID {
			continue
		}
		if fromUserID != 0 && m.FromUserID != fromUserID {
			continue
		}
		if m.ID > found.ID {
			found = m
		}
	}
	if found.ID == 0 {
		return model.Message{}, repository.ErrNotFound
	}
	return found, nil
}

func (t *memTx) MarkMessageRead(_ context.Context, id, recipientID uint64, at time.Time) (bool, error) {
	m, ok := t.s.messages[id]
	if !ok || m.ToUserID != recipientID || m.IsRead {
		return false, nil
	}
	readAt := at
	m.IsRead, m.ReadAt = true, &readAt
	put(t, t.s.messages, id, m)
	return true, nil
}

func (t *memTx) MarkAllMessagesRead(ctx context.Context, recipientID uint64, at time.Time) (int64, error) {
	var n int64
	for id, m := range t.s.messages {
		if m.ToUserID != recipientID || m.IsRead {
			continue
		}
		if ok, _ := t.MarkMessageRead(ctx, id, recipientID, at); ok {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListMessagesForUser(_ context.Context, userID uint64, dir repository.MessageDirection) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range t.s.messages {
		in := m.ToUserID == userID
		sent := m.FromUserID == userID
		switch dir {
		case repository.DirectionInbox:
			if !in {
				continue
			}
		case repository.DirectionSent:
			if !sent {
				continue
			}
		default:
			if !in && !sent {
				continue
			}
		}
		out = append(out, m)
	}
	sortByID(out, func(m model.Message) uint64 { return m.ID })
	return out, nil
}

func (t *memTx) CountUnread(_ context.Context, recipientID uint64) (int, error) {
	n := 0
	for _, m := range t.s.messages {
		if m.ToUserID == recipientID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// discussions

func (t *memTx) CreateDiscussion(_ context.Context, d *model.Discussion) error {
	d.ID = t.nextID("discussions")
	now := time.Now().UTC()
	d.IsLocked, d.ViewCount, d.ReplyCount = false, 0, 0
	d.LastActivityAt, d.CreatedAt, d.UpdatedAt = now, now, now
	put(t, t.s.discussions, d.ID, *d)
	return nil
}

func (t *memTx) GetDiscussion(_ context.Context, id uint64) (model.Discussion, error) {
	d, ok := t.s.discussions[id]
	if !ok {
		return model.Discussion{}, repository.ErrNotFound
	}
	return d, nil
}

func (t *memTx) ListDiscussions(_ context.Context, limit, offset int) ([]model.Discussion, error) {
	out := make([]model.Discussion, 0, len(t.s.discussions))
	for _, d := range t.s.discussions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), nil
}

func (t *memTx) IncrementReplyCount(_ context.Context, id uint64, at time.Time) (bool, error) {
	d, ok := t.s.discussions[id]
	if !ok || d.IsLocked {
		return false, nil
	}
	d.ReplyCount++
	d.LastActivityAt, d.UpdatedAt = at, at
	put(t, t.s.discussions, id, d)
	return true, nil
}

func (t *memTx) DecrementReplyCount(_ context.Context, id uint64, at time.Time) (bool, error) {
	d, ok := t.s.discussions[id]
	if !ok || d.ReplyCount == 0 {
		return false, nil
	}
	d.ReplyCount--
	d.UpdatedAt = at
	put(t, t.s.discussions, id, d)
	return true, nil
}

func (t *memTx) SetDiscussionLocked(_ context.Context, id uint64, locked bool, at time.Time) (bool, error) {
	d, ok := t.s.discussions[id]
	if !ok || d.IsLocked == locked {
		return false, nil
	}
	d.IsLocked = locked
	d.UpdatedAt = at
	put(t, t.s.discussions, id, d)
	return true, nil
}

func (t *memTx) IncrementDiscussionViews(_ context.Context, id uint64) (bool, error) {
	d, ok := t.s.discussions[id]
	if !ok {
		return false, nil
	}
	d.ViewCount++
	put(t, t.s.discussions, id, d)
	return true, nil
}

func (t *memTx) CreateReply(_ context.Context, r *model.DiscussionReply) error {
	r.ID = t.nextID("replies")
	r.DeletedAt = nil
	r.CreatedAt = time.Now().UTC()
	put(t, t.s.replies, r.ID, *r)
	return nil
}

func (t *memTx) GetReply(_ context.Context, id uint64) (model.DiscussionReply, error) {
	r, ok := t.s.replies[id]
	if !ok {
		return model.DiscussionReply{}, repository.ErrNotFound
	}
	return r, nil
}

func (t *memTx) SoftDeleteReply(_ context.Context, id uint64, at time.Time) (bool, error) {
	r, ok := t.s.replies[id]
	if !ok || r.DeletedAt != nil {
		return false, nil
	}
	deletedAt := at
	r.DeletedAt = &deletedAt
	put(t, t.s.replies, id, r)
	return true, nil
}

func (t *memTx) ListReplies(_ context.Context, discussionID uint64) ([]model.DiscussionReply, error) {
	out := []model.DiscussionReply{}
	for _, r := range t.s.replies {
		if r.DiscussionID == discussionID && r.DeletedAt == nil {
			out = append(out, r)
		}
	}
	sortByID(out, func(r model.DiscussionReply) uint64 { return r.ID })
	return out, nil
}

// audit

func (t *memTx) ListAuditEvents(_ context.Context, f repository.AuditFilter) ([]model.AuditEvent, error) {
	out := []model.AuditEvent{}
	for i := len(t.s.audit) - 1; i >= 0; i-- {
		e := t.s.audit[i]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.TargetType != "" && e.TargetType != f.TargetType {
			continue
		}
		if f.TargetID != 0 && e.TargetID != f.TargetID {
			continue
		}
		out = append(out, e)
	}
	return page(out, f.Limit, 0), nil
}
