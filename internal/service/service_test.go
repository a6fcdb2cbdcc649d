package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

type brokenSink struct{ calls int }

func (b *brokenSink) AppendAudit(context.Context, *model.AuditEvent) error {
	b.calls++
	return errors.New("audit table unavailable")
}

func TestAuditFailureDoesNotAbortOperation(t *testing.T) {
	sink := &brokenSink{}
	f := newFixtureWithSink(t, sink)
	seller := f.seller(t)
	l := f.listing(t, seller, 3)

	l, err := f.svc.RecordSale(f.ctx, seller, l.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Quantity)
	assert.Equal(t, 2, f.getListing(t, l.ID).Quantity)
	assert.Positive(t, sink.calls)
	assert.Empty(t, f.store.AuditEvents())
}

func TestFailedOperationWritesNoAudit(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 1)
	before := f.actions()

	_, err := f.svc.RecordSale(f.ctx, seller, l.ID, 2)
	require.Error(t, err)
	assert.Equal(t, before, f.actions())
}

func TestAuditActorAndTarget(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 1)

	events, err := f.svc.ListAuditEvents(f.ctx, f.admin, repository.AuditFilter{Action: string(audit.ActionListingCreated)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	require.NotNil(t, e.ActorID)
	assert.Equal(t, seller.UserID, *e.ActorID)
	assert.Equal(t, audit.TargetListing, e.TargetType)
	assert.Equal(t, l.ID, e.TargetID)
	assert.NotEmpty(t, e.EventID)

	_, err = f.svc.ListAuditEvents(f.ctx, seller, repository.AuditFilter{})
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestLockedUserCannotMutate(t *testing.T) {
	f := newFixture(t)
	seller := f.seller(t)
	l := f.listing(t, seller, 2)

	u, err := f.svc.SetUserLocked(f.ctx, f.admin, seller.UserID, true)
	require.NoError(t, err)
	assert.True(t, u.IsLocked)

	_, err = f.svc.RecordSale(f.ctx, seller, l.ID, 1)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "got %v", err)
	assert.Equal(t, 2, f.getListing(t, l.ID).Quantity)

	_, err = f.svc.GetListing(f.ctx, seller, l.ID)
	assert.NoError(t, err, "locked users keep read access")

	_, err = f.svc.SetUserLocked(f.ctx, f.admin, seller.UserID, false)
	require.NoError(t, err)
	_, err = f.svc.RecordSale(f.ctx, seller, l.ID, 1)
	assert.NoError(t, err)
}

func TestSetUserLockedGuards(t *testing.T) {
	f := newFixture(t)
	guest := f.user(t, model.RoleGuest)

	_, err := f.svc.SetUserLocked(f.ctx, guest, f.admin.UserID, true)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = f.svc.SetUserLocked(f.ctx, f.admin, f.admin.UserID, true)
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	_, err = f.svc.SetUserLocked(f.ctx, f.admin, 9999, true)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.svc.SetUserLocked(f.ctx, f.admin, guest.UserID, false)
	require.NoError(t, err)
	assert.Zero(t, f.countAction(audit.ActionUserUnlocked), "no change, no audit")
}

func TestUnknownActorIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ghost := identity.New(4242, model.RoleAdmin)

	_, err := f.svc.CreateDiscussion(f.ctx, ghost, "Parking on game days", "Which lot do you all use?")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Register(f.ctx, "  Fan@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", u.Email)
	assert.Equal(t, model.RoleGuest, u.Role)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	_, err = f.svc.Register(f.ctx, "fan@example.com", "another one")
	assert.True(t, apperr.Is(err, apperr.Conflict))
	_, err = f.svc.Register(f.ctx, "not-an-email", "correct horse")
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	_, err = f.svc.Register(f.ctx, "short@example.com", "short")
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	got, err := f.svc.Login(f.ctx, "fan@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = f.svc.Login(f.ctx, "fan@example.com", "wrong horse")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
	_, err = f.svc.Login(f.ctx, "nobody@example.com", "correct horse")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	me, err := f.svc.Me(f.ctx, identity.New(u.ID, u.Role))
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.Email)
	_, err = f.svc.Me(f.ctx, identity.Anonymous())
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestListSuites(t *testing.T) {
	f := newFixture(t)
	suites, err := f.svc.ListSuites(f.ctx)
	require.NoError(t, err)
	require.Len(t, suites, 1)
	assert.Equal(t, 12, suites[0].Capacity)
}
