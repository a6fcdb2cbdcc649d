package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
	"github.com/iliyamo/suite-exchange/internal/repository/memstore"
)

type noteLog struct {
	mu    sync.Mutex
	notes []queue.Notification
}

func (l *noteLog) Notify(_ context.Context, n queue.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notes = append(l.notes, n)
}

func (l *noteLog) all() []queue.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]queue.Notification(nil), l.notes...)
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	svc      *Service
	notes    *noteLog
	suite    model.Suite
	admin    identity.Identity
	approver identity.Identity
	users    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSink(t, nil)
}

// newFixtureWithSink lets a test replace the audit sink.
func newFixtureWithSink(t *testing.T, sink repository.AuditSink) *fixture {
	t.Helper()
	store := memstore.New()
	if sink == nil {
		sink = store
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notes := &noteLog{}
	f := &fixture{
		ctx:   context.Background(),
		store: store,
		notes: notes,
		suite: store.AddSuite(model.Suite{Area: model.AreaEastTerrace, Number: 101, DisplayName: "V101", Capacity: 12}),
	}
	f.svc = New(store, audit.NewRecorder(sink, logger), notes, logger, WithBcryptCost(4))
	f.admin = f.user(t, model.RoleAdmin)
	f.approver = f.user(t, model.RoleApprover)
	return f
}

func (f *fixture) user(t *testing.T, role model.Role) identity.Identity {
	t.Helper()
	f.users++
	u := f.store.AddUser(model.User{Email: fmt.Sprintf("user%d@example.com", f.users), Role: role})
	return identity.New(u.ID, u.Role)
}

// seller returns a user holding an APPROVED application for the fixture
// suite, with a token role of SELLER.
func (f *fixture) seller(t *testing.T) identity.Identity {
	t.Helper()
	guest := f.user(t, model.RoleGuest)
	app, err := f.svc.SubmitApplication(f.ctx, guest, SubmitApplicationInput{
		SuiteID: f.suite.ID, LegalName: "Pat Owner", Phone: "+1 555 0100", Message: "box holder since 2010",
	})
	require.NoError(t, err)
	_, err = f.svc.DecideApplication(f.ctx, f.approver, app.ID, model.ApplicationApproved, nil)
	require.NoError(t, err)
	return identity.New(guest.UserID, model.RoleSeller)
}

func (f *fixture) listing(t *testing.T, seller identity.Identity, qty int) model.Listing {
	t.Helper()
	l, err := f.svc.CreateListing(f.ctx, seller, CreateListingInput{
		SuiteID:        f.suite.ID,
		EventTitle:     "Season opener",
		EventDate:      time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC),
		Quantity:       qty,
		PriceCents:     12500,
		DeliveryMethod: model.DeliveryMobileTransfer,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) getListing(t *testing.T, id uint64) model.Listing {
	t.Helper()
	var l model.Listing
	require.NoError(t, f.store.View(f.ctx, func(tx repository.Tx) error {
		var err error
		l, err = tx.GetListing(f.ctx, id)
		return err
	}))
	return l
}

func (f *fixture) getUser(t *testing.T, id uint64) model.User {
	t.Helper()
	var u model.User
	require.NoError(t, f.store.View(f.ctx, func(tx repository.Tx) error {
		var err error
		u, err = tx.GetUser(f.ctx, id)
		return err
	}))
	return u
}

func (f *fixture) actions() []string {
	var out []string
	for _, e := range f.store.AuditEvents() {
		out = append(out, e.Action)
	}
	return out
}

func (f *fixture) countAction(a audit.Action) int {
	n := 0
	for _, e := range f.store.AuditEvents() {
		if e.Action == string(a) {
			n++
		}
	}
	return n
}
