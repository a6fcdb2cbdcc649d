package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// ListingRepo provides access to the listings table.  Quantity changes are
// always single-statement compare-and-set updates so concurrent sales on
// the same listing serialise on the row instead of losing updates.
type ListingRepo struct{ q Querier }

func NewListingRepo(q Querier) *ListingRepo { return &ListingRepo{q: q} }

const listingColumns = `id, seller_id, suite_id, event_title, event_date, quantity, original_quantity,
       price_cents, delivery_method, notes, status, moderation_reason, view_count, created_at, updated_at`

// CreateListing inserts l and populates ID and timestamps.
func (r *ListingRepo) CreateListing(ctx context.Context, l *model.Listing) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO listings (seller_id, suite_id, event_title, event_date, quantity, original_quantity,
		                       price_cents, delivery_method, notes, status, view_count, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,0,?,?)`,
		l.SellerID, l.SuiteID, l.EventTitle, l.EventDate.UTC(), l.Quantity, l.OriginalQuantity,
		l.PriceCents, string(l.DeliveryMethod), l.Notes, string(l.Status), now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

// GetListing returns a listing or ErrNotFound.
func (r *ListingRepo) GetListing(ctx context.Context, id uint64) (model.Listing, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id=?", id)
	l, err := scanListing(row)
	return l, notFound(err)
}

// GetListingForUpdate is GetListing as a locking read.
func (r *ListingRepo) GetListingForUpdate(ctx context.Context, id uint64) (model.Listing, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id=? FOR UPDATE", id)
	l, err := scanListing(row)
	return l, notFound(err)
}

// UpdateListingDetails edits the mutable fields of an ACTIVE listing.
func (r *ListingRepo) UpdateListingDetails(ctx context.Context, id uint64, priceCents int64, notes string, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE listings SET price_cents=?, notes=?, updated_at=? WHERE id=? AND status='ACTIVE'",
		priceCents, notes, at, id))
}

// DecrementListingQuantity subtracts n tickets.  MySQL evaluates single
// table SET clauses left to right, so the status expression sees the
// already-decremented quantity.
func (r *ListingRepo) DecrementListingQuantity(ctx context.Context, id uint64, n int, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		`UPDATE listings
		 SET quantity = quantity - ?, status = IF(quantity = 0, 'SOLD', status), updated_at = ?
		 WHERE id = ? AND status = 'ACTIVE' AND quantity >= ?`,
		n, at, id, n))
}

// TransitionListing moves a listing to `to` if its current status is one
// of from.  A non-nil reason is stored as the moderation reason.
func (r *ListingRepo) TransitionListing(ctx context.Context, id uint64, from []model.ListingStatus, to model.ListingStatus, reason *string, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{string(to), nullString(reason), at, id}
	for _, s := range from {
		args = append(args, string(s))
	}
	q := `UPDATE listings SET status=?, moderation_reason=COALESCE(?, moderation_reason), updated_at=?
	      WHERE id=? AND status IN (` + placeholders(len(from)) + `)`
	return affected(r.q.ExecContext(ctx, q, args...))
}

// IncrementListingViews bumps the view counter.
func (r *ListingRepo) IncrementListingViews(ctx context.Context, id uint64) (bool, error) {
	return affected(r.q.ExecContext(ctx, "UPDATE listings SET view_count = view_count + 1 WHERE id=?", id))
}

// ListListings returns listings matching f, newest first.
func (r *ListingRepo) ListListings(ctx context.Context, f ListingFilter) ([]model.Listing, error) {
	var where []string
	var args []any
	if f.SuiteID != 0 {
		where = append(where, "suite_id=?")
		args = append(args, f.SuiteID)
	}
	if f.SellerID != 0 {
		where = append(where, "seller_id=?")
		args = append(args, f.SellerID)
	}
	if len(f.Statuses) == 0 {
		where = append(where, "status <> 'MODERATED'")
	} else {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	limit, offset := pageBounds(f.Limit, f.Offset)
	q := "SELECT " + listingColumns + " FROM listings WHERE " + strings.Join(where, " AND ") +
		" ORDER BY event_date ASC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanListing(s scanner) (model.Listing, error) {
	var (
		l        model.Listing
		delivery string
		status   string
		reason   sql.NullString
	)
	if err := s.Scan(&l.ID, &l.SellerID, &l.SuiteID, &l.EventTitle, &l.EventDate, &l.Quantity, &l.OriginalQuantity,
		&l.PriceCents, &delivery, &l.Notes, &status, &reason, &l.ViewCount, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return model.Listing{}, err
	}
	l.DeliveryMethod = model.DeliveryMethod(delivery)
	l.Status = model.ListingStatus(status)
	l.ModerationReason = stringPtr(reason)
	return l, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// pageBounds clamps list limits to 1..200 (default 50).
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
