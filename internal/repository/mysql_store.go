package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore implements Store on top of database/sql.  Each InTx call
// opens one transaction; the repositories bound to it share that
// transaction so multi-entity writes commit or roll back together.
type MySQLStore struct {
	db    *sql.DB
	audit *AuditRepo
}

var _ Store = (*MySQLStore)(nil)

// NewMySQLStore returns a store bound to db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, audit: NewAuditRepo(db)}
}

// DB exposes the underlying pool for health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// InTx runs fn inside a read-write transaction.
func (s *MySQLStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, nil, fn)
}

// View runs fn inside a read-only transaction.
func (s *MySQLStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// AppendAudit writes directly on the pool, outside of any transaction.
func (s *MySQLStore) AppendAudit(ctx context.Context, e *model.AuditEvent) error {
	return s.audit.AppendAudit(ctx, e)
}

func (s *MySQLStore) run(ctx context.Context, opts *sql.TxOptions, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(newSQLTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// sqlTx binds every repository to the same transaction.
type sqlTx struct {
	*UserRepo
	*SuiteRepo
	*ApplicationRepo
	*ListingRepo
	*MessageRepo
	*DiscussionRepo
	*AuditRepo
}

func newSQLTx(q Querier) *sqlTx {
	return &sqlTx{
		UserRepo:        NewUserRepo(q),
		SuiteRepo:       NewSuiteRepo(q),
		ApplicationRepo: NewApplicationRepo(q),
		ListingRepo:     NewListingRepo(q),
		MessageRepo:     NewMessageRepo(q),
		DiscussionRepo:  NewDiscussionRepo(q),
		AuditRepo:       NewAuditRepo(q),
	}
}

// affected reports whether res touched at least one row.
func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
