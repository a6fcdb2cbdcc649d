package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// ApplicationRepo provides access to seller_applications.  A user may hold
// at most one open (PENDING or APPROVED) application per suite; the engine
// enforces this under the applicant's row lock.
type ApplicationRepo struct{ q Querier }

func NewApplicationRepo(q Querier) *ApplicationRepo { return &ApplicationRepo{q: q} }

const applicationColumns = `id, user_id, suite_id, legal_name, phone, message, invite_code, status,
       decided_by, decision_note, decided_at, created_at, updated_at`

// CreateApplication inserts a and populates ID and timestamps.
func (r *ApplicationRepo) CreateApplication(ctx context.Context, a *model.SellerApplication) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO seller_applications (user_id, suite_id, legal_name, phone, message, invite_code, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.SuiteID, a.LegalName, a.Phone, a.Message, nullString(a.InviteCode), string(a.Status), now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

// GetApplication returns a single application or ErrNotFound.
func (r *ApplicationRepo) GetApplication(ctx context.Context, id uint64) (model.SellerApplication, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+applicationColumns+" FROM seller_applications WHERE id=?", id)
	a, err := scanApplication(row)
	return a, notFound(err)
}

// FindOpenApplication returns the newest PENDING or APPROVED application
// for the (user, suite) pair.
func (r *ApplicationRepo) FindOpenApplication(ctx context.Context, userID, suiteID uint64) (model.SellerApplication, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+applicationColumns+` FROM seller_applications
		 WHERE user_id=? AND suite_id=? AND status IN ('PENDING','APPROVED')
		 ORDER BY id DESC LIMIT 1`, userID, suiteID)
	a, err := scanApplication(row)
	return a, notFound(err)
}

// DecideApplication records the decision only while the application is
// still PENDING.  Two concurrent deciders race on the same row; exactly one
// sees a matched row.
func (r *ApplicationRepo) DecideApplication(ctx context.Context, d ApplicationDecision) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		`UPDATE seller_applications
		 SET status=?, decided_by=?, decision_note=?, decided_at=?, updated_at=?
		 WHERE id=? AND status='PENDING'`,
		string(d.Status), d.DecidedBy, nullString(d.Note), d.At, d.At, d.ID))
}

// HasApprovedApplication reports whether userID owns suiteID.
func (r *ApplicationRepo) HasApprovedApplication(ctx context.Context, userID, suiteID uint64) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM seller_applications WHERE user_id=? AND suite_id=? AND status='APPROVED'",
		userID, suiteID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListApplications returns applications matching f, newest first.
func (r *ApplicationRepo) ListApplications(ctx context.Context, f ApplicationFilter) ([]model.SellerApplication, error) {
	var where []string
	var args []any
	if f.UserID != 0 {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(f.Status))
	}
	q := "SELECT " + applicationColumns + " FROM seller_applications"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SellerApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (model.SellerApplication, error) {
	var (
		a          model.SellerApplication
		status     string
		inviteCode sql.NullString
		decidedBy  sql.NullInt64
		note       sql.NullString
		decidedAt  sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.SuiteID, &a.LegalName, &a.Phone, &a.Message, &inviteCode, &status,
		&decidedBy, &note, &decidedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.SellerApplication{}, err
	}
	a.Status = model.ApplicationStatus(status)
	a.InviteCode = stringPtr(inviteCode)
	a.DecisionNote = stringPtr(note)
	if decidedBy.Valid {
		v := uint64(decidedBy.Int64)
		a.DecidedBy = &v
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
	return a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
