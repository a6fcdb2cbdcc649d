package repository

import (
	"context"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// SuiteRepo reads the suites reference table.
type SuiteRepo struct{ q Querier }

func NewSuiteRepo(q Querier) *SuiteRepo { return &SuiteRepo{q: q} }

// GetSuite returns the suite with the given id or ErrNotFound.
func (r *SuiteRepo) GetSuite(ctx context.Context, id uint64) (model.Suite, error) {
	var s model.Suite
	var area string
	err := r.q.QueryRowContext(ctx,
		"SELECT id, area, number, display_name, COALESCE(capacity, 0) FROM suites WHERE id=?", id).
		Scan(&s.ID, &area, &s.Number, &s.DisplayName, &s.Capacity)
	if err != nil {
		return model.Suite{}, notFound(err)
	}
	s.Area = model.Area(area)
	return s, nil
}

// ListSuites returns every suite ordered by area and number.
func (r *SuiteRepo) ListSuites(ctx context.Context) ([]model.Suite, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, area, number, display_name, COALESCE(capacity, 0) FROM suites ORDER BY area, number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Suite{}
	for rows.Next() {
		var s model.Suite
		var area string
		if err := rows.Scan(&s.ID, &area, &s.Number, &s.DisplayName, &s.Capacity); err != nil {
			return nil, err
		}
		s.Area = model.Area(area)
		out = append(out, s)
	}
	return out, rows.Err()
}
