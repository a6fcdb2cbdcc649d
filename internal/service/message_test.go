package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

func TestSendMessageToSeller(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)
	buyer := f.user(t, model.RoleGuest)

	m, err := f.svc.SendMessage(f.ctx, buyer, l.ID, "  Is parking included?  ", 0)
	require.NoError(t, err)
	assert.Equal(t, seller.UserID, m.ToUserID)
	assert.Equal(t, "Is parking included?", m.Body)
	assert.False(t, m.IsRead)

	notes := f.notes.all()
	last := notes[len(notes)-1]
	assert.Equal(t, queue.KindMessageReceived, last.Kind)
	assert.Equal(t, seller.UserID, last.UserID)

	_, err = f.svc.SendMessage(f.ctx, buyer, l.ID, "short", 0)
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	_, err = f.svc.SendMessage(f.ctx, buyer, 9999, "Is parking included?", 0)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = f.svc.SendMessage(f.ctx, identity.Anonymous(), l.ID, "Is parking included?", 0)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestSellerReplyRouting(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)
	auditBefore := len(f.store.AuditEvents())

	_, err := f.svc.SendMessage(f.ctx, seller, l.ID, "Anyone interested?", 0)
	assert.True(t, apperr.Is(err, apperr.InvalidTarget), "nothing to reply to yet")
	assert.Len(t, f.store.AuditEvents(), auditBefore)

	alice := f.user(t, model.RoleGuest)
	bob := f.user(t, model.RoleGuest)
	_, err = f.svc.SendMessage(f.ctx, alice, l.ID, "I would like both tickets", 0)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.ctx, bob, l.ID, "Would you take less for them?", 0)
	require.NoError(t, err)

	m, err := f.svc.SendMessage(f.ctx, seller, l.ID, "Sorry, price is firm", 0)
	require.NoError(t, err)
	assert.Equal(t, bob.UserID, m.ToUserID, "latest buyer gets the reply")

	m, err = f.svc.SendMessage(f.ctx, seller, l.ID, "They are yours, Alice", alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, m.ToUserID)

	carol := f.user(t, model.RoleGuest)
	_, err = f.svc.SendMessage(f.ctx, seller, l.ID, "Hello there, Carol", carol.UserID)
	assert.True(t, apperr.Is(err, apperr.InvalidTarget))
}

func TestMessagingModeratedListing(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)
	buyer := f.user(t, model.RoleGuest)
	_, err := f.svc.ModerateListing(f.ctx, f.admin, l.ID, "under review")
	require.NoError(t, err)

	_, err = f.svc.SendMessage(f.ctx, buyer, l.ID, "Is this still available?", 0)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)
	buyer := f.user(t, model.RoleGuest)
	m, err := f.svc.SendMessage(f.ctx, buyer, l.ID, "Is parking included?", 0)
	require.NoError(t, err)

	_, err = f.svc.MarkRead(f.ctx, buyer, m.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = f.svc.MarkRead(f.ctx, seller, 9999)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	got, err := f.svc.MarkRead(f.ctx, seller, m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)
	first := *got.ReadAt

	got, err = f.svc.MarkRead(f.ctx, seller, m.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.ReadAt, "second mark is a no-op")
	assert.Equal(t, 1, f.countAction(audit.ActionMessageRead))
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)
	for i := 0; i < 3; i++ {
		buyer := f.user(t, model.RoleGuest)
		_, err := f.svc.SendMessage(f.ctx, buyer, l.ID, "Still for sale?", 0)
		require.NoError(t, err)
	}

	n, err := f.svc.MarkAllRead(f.ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = f.svc.MarkAllRead(f.ctx, seller)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := f.svc.ListThreads(f.ctx, seller, repository.DirectionAll)
	require.NoError(t, err)
	assert.Zero(t, list.Unread)
	assert.Equal(t, 1, f.countAction(audit.ActionMessagesReadAll))
}

func TestListThreadsGroupsByCounterpart(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)
	alice := f.user(t, model.RoleGuest)
	bob := f.user(t, model.RoleGuest)

	_, err := f.svc.SendMessage(f.ctx, alice, l.ID, "First question here", 0)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.ctx, alice, l.ID, "Second question here", 0)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.ctx, bob, l.ID, "Bob's question here", 0)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.ctx, seller, l.ID, "Answer for Alice here", alice.UserID)
	require.NoError(t, err)

	all, err := f.svc.ListThreads(f.ctx, seller, repository.DirectionAll)
	require.NoError(t, err)
	require.Len(t, all.Threads, 2)
	assert.Equal(t, 3, all.Unread)
	byCounterpart := map[uint64]Thread{}
	for _, th := range all.Threads {
		byCounterpart[th.CounterpartID] = th
	}
	assert.Len(t, byCounterpart[alice.UserID].Messages, 3)
	assert.Equal(t, 2, byCounterpart[alice.UserID].Unread)
	assert.Len(t, byCounterpart[bob.UserID].Messages, 1)

	sent, err := f.svc.ListThreads(f.ctx, seller, repository.DirectionSent)
	require.NoError(t, err)
	require.Len(t, sent.Threads, 1)
	assert.Equal(t, alice.UserID, sent.Threads[0].CounterpartID)
	assert.Equal(t, 3, sent.Unread, "unread ignores the filter")

	aliceView, err := f.svc.ListThreads(f.ctx, alice, repository.DirectionInbox)
	require.NoError(t, err)
	require.Len(t, aliceView.Threads, 1)
	assert.Equal(t, seller.UserID, aliceView.Threads[0].CounterpartID)
	assert.Equal(t, 1, aliceView.Unread)

	_, err = f.svc.ListThreads(f.ctx, alice, "spam")
	assert.True(t, apperr.Is(err, apperr.ValidationError))
}
