package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

func TestInTxRollsBackEveryWrite(t *testing.T) {
	s := New()
	suite := s.AddSuite(model.Suite{Area: model.AreaLowerBowl, Number: 1, Capacity: 10})
	seller := s.AddUser(model.User{Email: "s@example.com", Role: model.RoleSeller})
	ctx := context.Background()

	var listingID uint64
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		l := &model.Listing{SellerID: seller.ID, SuiteID: suite.ID, Quantity: 4, OriginalQuantity: 4, Status: model.ListingActive}
		err := tx.CreateListing(ctx, l)
		listingID = l.ID
		return err
	}))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Tx) error {
		ok, err := tx.DecrementListingQuantity(ctx, listingID, 4, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.CreateListing(ctx, &model.Listing{SellerID: seller.ID, SuiteID: suite.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		l, err := tx.GetListing(ctx, listingID)
		require.NoError(t, err)
		assert.Equal(t, 4, l.Quantity)
		assert.Equal(t, model.ListingActive, l.Status)
		_, err = tx.GetListing(ctx, listingID+1)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	}))

	// the rolled-back id is handed out again
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		l := &model.Listing{SellerID: seller.ID, SuiteID: suite.ID}
		require.NoError(t, tx.CreateListing(ctx, l))
		assert.Equal(t, listingID+1, l.ID)
		return nil
	}))
}

func TestDecrementToZeroMarksSold(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		l := &model.Listing{Quantity: 2, OriginalQuantity: 2, Status: model.ListingActive}
		require.NoError(t, tx.CreateListing(ctx, l))

		ok, _ := tx.DecrementListingQuantity(ctx, l.ID, 3, time.Now())
		assert.False(t, ok)
		ok, _ = tx.DecrementListingQuantity(ctx, l.ID, 2, time.Now())
		assert.True(t, ok)

		got, _ := tx.GetListing(ctx, l.ID)
		assert.Equal(t, 0, got.Quantity)
		assert.Equal(t, model.ListingSold, got.Status)
		ok, _ = tx.DecrementListingQuantity(ctx, l.ID, 1, time.Now())
		assert.False(t, ok)
		return nil
	}))
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := New()
	s.AddUser(model.User{Email: "dup@example.com"})
	err := s.InTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateUser(context.Background(), &model.User{Email: "DUP@example.com"})
	})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestListListingsHidesModerated(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		for _, st := range []model.ListingStatus{model.ListingActive, model.ListingModerated, model.ListingSold} {
			require.NoError(t, tx.CreateListing(ctx, &model.Listing{SuiteID: 1, Status: st}))
		}
		all, _ := tx.ListListings(ctx, repository.ListingFilter{})
		assert.Len(t, all, 2)
		mod, _ := tx.ListListings(ctx, repository.ListingFilter{Statuses: []model.ListingStatus{model.ListingModerated}})
		assert.Len(t, mod, 1)
		return nil
	}))
}

func TestAuditEventsAppendOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AppendAudit(ctx, &model.AuditEvent{Action: "A", TargetType: "listing", TargetID: 1}))
	require.NoError(t, s.AppendAudit(ctx, &model.AuditEvent{Action: "B", TargetType: "listing", TargetID: 2}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		out, err := tx.ListAuditEvents(ctx, repository.AuditFilter{TargetType: "listing"})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "B", out[0].Action)
		return nil
	}))
	assert.Len(t, s.AuditEvents(), 2)
}

func TestGuardedWritesRejectStaleState(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		l := &model.Listing{Quantity: 5, OriginalQuantity: 5, Status: model.ListingWithdrawn}
		require.NoError(t, tx.CreateListing(ctx, l))
		ok, err := tx.DecrementListingQuantity(ctx, l.ID, 1, time.Now())
		require.NoError(t, err)
		assert.False(t, ok, "withdrawn listings cannot be sold from")
		got, _ := tx.GetListing(ctx, l.ID)
		assert.Equal(t, 5, got.Quantity)

		a := &model.SellerApplication{UserID: 1, SuiteID: 1, Status: model.ApplicationPending}
		require.NoError(t, tx.CreateApplication(ctx, a))
		ok, err = tx.DecideApplication(ctx, repository.ApplicationDecision{ID: a.ID, Status: model.ApplicationDenied, DecidedBy: 2, At: time.Now()})
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.DecideApplication(ctx, repository.ApplicationDecision{ID: a.ID, Status: model.ApplicationApproved, DecidedBy: 3, At: time.Now()})
		require.NoError(t, err)
		assert.False(t, ok, "a decided application cannot be decided again")
		got2, _ := tx.GetApplication(ctx, a.ID)
		assert.Equal(t, model.ApplicationDenied, got2.Status)
		return nil
	}))
}
