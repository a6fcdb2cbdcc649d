package service

import (
	"context"
	"time"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/authz"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// defaultMaxQuantity bounds a listing when the suite capacity is unknown.
const defaultMaxQuantity = 100

// CreateListingInput carries a new listing.
type CreateListingInput struct {
	SuiteID        uint64               `json:"suite_id"`
	EventTitle     string               `json:"event_title"`
	EventDate      time.Time            `json:"event_date"`
	Quantity       int                  `json:"quantity"`
	PriceCents     int64                `json:"price_cents"`
	DeliveryMethod model.DeliveryMethod `json:"delivery_method"`
	Notes          string               `json:"notes"`
}

// UpdateListingInput changes the editable fields of an ACTIVE listing.
// Nil fields are left unchanged.
type UpdateListingInput struct {
	PriceCents *int64  `json:"price_cents,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// ListingQuery filters listing discovery.
type ListingQuery struct {
	SuiteID  uint64
	SellerID uint64
	Status   model.ListingStatus
	Limit    int
	Offset   int
}

// CreateListing opens an ACTIVE listing.  The caller must hold an APPROVED
// application for the suite; the role carried by the caller's token is not
// consulted.
func (s *Service) CreateListing(ctx context.Context, id identity.Identity, in CreateListingInput) (model.Listing, error) {
	var l model.Listing
	err := s.mutate(ctx, authz.CreateListing, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		title, err := textField("event title", in.EventTitle, 3, 200)
		if err != nil {
			return err
		}
		notes, err := textField("notes", in.Notes, 0, 2000)
		if err != nil {
			return err
		}
		if in.EventDate.IsZero() {
			return apperr.New(apperr.ValidationError, "event date is required")
		}
		if in.PriceCents <= 0 {
			return apperr.New(apperr.ValidationError, "price must be greater than zero")
		}
		if !in.DeliveryMethod.Valid() {
			return apperr.New(apperr.ValidationError, "delivery method must be MOBILE_TRANSFER, PDF or HARD_COPY")
		}
		suite, err := tx.GetSuite(ctx, in.SuiteID)
		if err != nil {
			return notFound(err, "suite")
		}
		owns, err := tx.HasApprovedApplication(ctx, actor.ID, suite.ID)
		if err != nil {
			return err
		}
		if !owns {
			return apperr.New(apperr.Forbidden, "an approved seller application for this suite is required")
		}
		limit := suite.Capacity
		if limit <= 0 {
			limit = defaultMaxQuantity
		}
		if in.Quantity < 1 || in.Quantity > limit {
			return apperr.New(apperr.ValidationError, "quantity must be between 1 and %d", limit)
		}

		l = model.Listing{
			SellerID:         actor.ID,
			SuiteID:          suite.ID,
			EventTitle:       title,
			EventDate:        in.EventDate.UTC(),
			Quantity:         in.Quantity,
			OriginalQuantity: in.Quantity,
			PriceCents:       in.PriceCents,
			DeliveryMethod:   in.DeliveryMethod,
			Notes:            notes,
			Status:           model.ListingActive,
		}
		if err := tx.CreateListing(ctx, &l); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionListingCreated,
			TargetType: audit.TargetListing,
			TargetID:   l.ID,
			Metadata:   map[string]any{"suite_id": l.SuiteID, "quantity": l.Quantity, "price_cents": l.PriceCents},
		})
		return nil
	})
	return l, err
}

// loadOwned fetches a listing the actor owns or administers.
func loadOwned(ctx context.Context, tx repository.Tx, id identity.Identity, listingID uint64) (model.Listing, error) {
	l, err := tx.GetListing(ctx, listingID)
	if err != nil {
		return l, notFound(err, "listing")
	}
	if !authz.OwnerOrAdmin(id, l.SellerID) {
		return l, apperr.New(apperr.Forbidden, "only the seller or an admin may change this listing")
	}
	return l, nil
}

// UpdateListing edits price and notes of an ACTIVE listing.
func (s *Service) UpdateListing(ctx context.Context, id identity.Identity, listingID uint64, in UpdateListingInput) (model.Listing, error) {
	var l model.Listing
	err := s.mutate(ctx, authz.UpdateListing, id, func(tx repository.Tx, _ model.User, fx *effects) error {
		current, err := loadOwned(ctx, tx, id, listingID)
		if err != nil {
			return err
		}
		if in.PriceCents == nil && in.Notes == nil {
			return apperr.New(apperr.ValidationError, "nothing to update")
		}
		price, notes := current.PriceCents, current.Notes
		if in.PriceCents != nil {
			if *in.PriceCents <= 0 {
				return apperr.New(apperr.ValidationError, "price must be greater than zero")
			}
			price = *in.PriceCents
		}
		if in.Notes != nil {
			if notes, err = textField("notes", *in.Notes, 0, 2000); err != nil {
				return err
			}
		}
		if current.Status != model.ListingActive {
			return apperr.New(apperr.InvalidState, "only ACTIVE listings can be edited (listing is %s)", current.Status)
		}
		ok, err := tx.UpdateListingDetails(ctx, listingID, price, notes, s.clock())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, "listing is no longer ACTIVE")
		}
		if l, err = tx.GetListing(ctx, listingID); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionListingUpdated,
			TargetType: audit.TargetListing,
			TargetID:   l.ID,
			Metadata:   map[string]any{"price_cents": l.PriceCents, "previous_price_cents": current.PriceCents},
		})
		return nil
	})
	return l, err
}

// RecordSale removes quantitySold tickets from an ACTIVE listing.  The
// decrement is a compare-and-set on the stored quantity, so concurrent
// sales can never oversell; the listing becomes SOLD when none remain.
func (s *Service) RecordSale(ctx context.Context, id identity.Identity, listingID uint64, quantitySold int) (model.Listing, error) {
	var l model.Listing
	err := s.mutate(ctx, authz.RecordSale, id, func(tx repository.Tx, _ model.User, fx *effects) error {
		current, err := loadOwned(ctx, tx, id, listingID)
		if err != nil {
			return err
		}
		if err := checkSale(current, quantitySold); err != nil {
			return err
		}
		ok, err := tx.DecrementListingQuantity(ctx, listingID, quantitySold, s.clock())
		if err != nil {
			return err
		}
		if !ok {
			// lost a race; classify against the committed state that won
			latest, err := tx.GetListingForUpdate(ctx, listingID)
			if err != nil {
				return err
			}
			if err := checkSale(latest, quantitySold); err != nil {
				return err
			}
			return apperr.New(apperr.Conflict, "listing changed concurrently, retry")
		}
		if l, err = tx.GetListing(ctx, listingID); err != nil {
			return err
		}
		action := audit.ActionListingUpdated
		if l.Status == model.ListingSold {
			action = audit.ActionListingSold
		}
		fx.record(audit.Entry{
			Action:     action,
			TargetType: audit.TargetListing,
			TargetID:   l.ID,
			Metadata:   map[string]any{"quantity_sold": quantitySold, "remaining": l.Quantity},
		})
		return nil
	})
	return l, err
}

// checkSale validates a sale against the listing as stored.  Quantity is
// checked first so a sold-out listing reports InvalidQuantity.
func checkSale(l model.Listing, n int) error {
	if n < 1 {
		return apperr.New(apperr.InvalidQuantity, "quantity sold must be at least 1")
	}
	if n > l.Quantity {
		return apperr.New(apperr.InvalidQuantity, "cannot sell %d tickets, only %d remaining", n, l.Quantity)
	}
	if l.Status != model.ListingActive {
		return apperr.New(apperr.InvalidState, "sales can only be recorded on ACTIVE listings (listing is %s)", l.Status)
	}
	return nil
}

// WithdrawListing takes an ACTIVE listing off the market.  The remaining
// quantity is kept as is.
func (s *Service) WithdrawListing(ctx context.Context, id identity.Identity, listingID uint64) (model.Listing, error) {
	var l model.Listing
	err := s.mutate(ctx, authz.WithdrawListing, id, func(tx repository.Tx, _ model.User, fx *effects) error {
		current, err := loadOwned(ctx, tx, id, listingID)
		if err != nil {
			return err
		}
		if current.Status != model.ListingActive {
			return apperr.New(apperr.InvalidState, "only ACTIVE listings can be withdrawn (listing is %s)", current.Status)
		}
		ok, err := tx.TransitionListing(ctx, listingID, []model.ListingStatus{model.ListingActive}, model.ListingWithdrawn, nil, s.clock())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, "listing is no longer ACTIVE")
		}
		if l, err = tx.GetListing(ctx, listingID); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionListingWithdrawn,
			TargetType: audit.TargetListing,
			TargetID:   l.ID,
			Metadata:   map[string]any{"remaining": l.Quantity},
		})
		return nil
	})
	return l, err
}

// ModerateListing hides a listing from discovery.  It is legal from ACTIVE,
// SOLD and WITHDRAWN.
func (s *Service) ModerateListing(ctx context.Context, id identity.Identity, listingID uint64, reason string) (model.Listing, error) {
	var l model.Listing
	err := s.mutate(ctx, authz.ModerateListing, id, func(tx repository.Tx, _ model.User, fx *effects) error {
		reason, err := textField("reason", reason, 3, 500)
		if err != nil {
			return err
		}
		current, err := tx.GetListing(ctx, listingID)
		if err != nil {
			return notFound(err, "listing")
		}
		if current.Status == model.ListingModerated {
			return apperr.New(apperr.InvalidState, "listing is already MODERATED")
		}
		from := []model.ListingStatus{model.ListingActive, model.ListingSold, model.ListingWithdrawn}
		ok, err := tx.TransitionListing(ctx, listingID, from, model.ListingModerated, &reason, s.clock())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, "listing is already MODERATED")
		}
		if l, err = tx.GetListing(ctx, listingID); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionListingModerated,
			TargetType: audit.TargetListing,
			TargetID:   l.ID,
			Metadata:   map[string]any{"reason": reason, "previous_status": string(current.Status)},
		})
		fx.notify(queue.Notification{
			Kind:       queue.KindListingModerated,
			UserID:     l.SellerID,
			Subject:    "Your listing \"" + l.EventTitle + "\" was removed by a moderator",
			TargetType: audit.TargetListing,
			TargetID:   l.ID,
			Detail:     reason,
		})
		return nil
	})
	return l, err
}

// RecordView counts one view of a listing.  It needs no identity and
// writes no audit entry.
func (s *Service) RecordView(ctx context.Context, listingID uint64) error {
	var found bool
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		found, err = tx.IncrementListingViews(ctx, listingID)
		return err
	})
	if err != nil {
		return s.fail(ctx, "", err)
	}
	if !found {
		return apperr.New(apperr.NotFound, "listing not found")
	}
	return nil
}

// visible reports whether id may see l.  MODERATED listings are only shown
// to their seller and to admins.
func visible(id identity.Identity, l model.Listing) bool {
	return l.Status != model.ListingModerated || (id.Authenticated() && authz.OwnerOrAdmin(id, l.SellerID))
}

// GetListing returns one listing and counts the view.
func (s *Service) GetListing(ctx context.Context, id identity.Identity, listingID uint64) (model.Listing, error) {
	var l model.Listing
	err := s.read(ctx, "", id, func(tx repository.Tx) error {
		var err error
		if l, err = tx.GetListing(ctx, listingID); err != nil {
			return notFound(err, "listing")
		}
		if !visible(id, l) {
			return apperr.New(apperr.NotFound, "listing not found")
		}
		return nil
	})
	if err != nil {
		return model.Listing{}, err
	}
	if s.bumpViews(ctx, audit.TargetListing, listingID, func(tx repository.Tx) (bool, error) {
		return tx.IncrementListingViews(ctx, listingID)
	}) {
		l.ViewCount++
	}
	return l, nil
}

// ListListings returns listings for discovery.  MODERATED listings are
// excluded unless an admin, or a seller listing their own, asks for them.
func (s *Service) ListListings(ctx context.Context, id identity.Identity, q ListingQuery) ([]model.Listing, error) {
	f := repository.ListingFilter{SuiteID: q.SuiteID, SellerID: q.SellerID, Limit: q.Limit, Offset: q.Offset}
	switch q.Status {
	case "":
	case model.ListingActive, model.ListingSold, model.ListingWithdrawn:
		f.Statuses = []model.ListingStatus{q.Status}
	case model.ListingModerated:
		self := id.Authenticated() && q.SellerID == id.UserID
		if !self && !id.Is(model.RoleAdmin) {
			return nil, apperr.New(apperr.Forbidden, "moderated listings are only visible to their seller")
		}
		f.Statuses = []model.ListingStatus{q.Status}
	default:
		return nil, apperr.New(apperr.ValidationError, "unknown listing status %q", q.Status)
	}
	var out []model.Listing
	err := s.read(ctx, "", id, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListListings(ctx, f)
		return err
	})
	return out, err
}
