// Package service is the marketplace engine: seller verification, the
// listing lifecycle, message threads and the discussion board.  Every
// state-changing operation runs through mutate, which checks the caller's
// capability, executes the operation in one store transaction and, once
// committed, emits its audit entries and notifications.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/authz"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/metrics"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// Auditor receives audit entries after a commit.  Record must not fail.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service implements every engine operation.
type Service struct {
	store      repository.Store
	audit      Auditor
	notifier   queue.Notifier
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithBcryptCost sets the cost used when registering accounts.
func WithBcryptCost(cost int) Option { return func(s *Service) { s.bcryptCost = cost } }

// New wires a Service.  A nil notifier drops notifications and a nil logger
// uses slog.Default.
func New(store repository.Store, auditor Auditor, notifier queue.Notifier, logger *slog.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = queue.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:      store,
		audit:      auditor,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
		bcryptCost: 12,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// effects collects what an operation wants to emit once it has committed.
type effects struct {
	entries []audit.Entry
	notes   []queue.Notification
}

func (fx *effects) record(e audit.Entry) { fx.entries = append(fx.entries, e) }

func (fx *effects) notify(n queue.Notification) { fx.notes = append(fx.notes, n) }

func (fx *effects) reset() { fx.entries, fx.notes = nil, nil }

func (s *Service) clock() time.Time { return s.now().UTC() }

func (s *Service) ok(op authz.Operation) {
	metrics.Operations.WithLabelValues(string(op), "ok").Inc()
}

// txFunc is the body of a state-changing operation.  actor is the caller's
// user row, locked for the duration of the transaction.
type txFunc func(tx repository.Tx, actor model.User, fx *effects) error

// mutate runs fn as a single transaction on behalf of id.  The audit
// entries and notifications fn collected are emitted only after commit;
// an audit failure never changes the returned result.
func (s *Service) mutate(ctx context.Context, op authz.Operation, id identity.Identity, fn txFunc) error {
	if err := authz.Check(op, id); err != nil {
		return s.fail(ctx, op, err)
	}
	fx := &effects{}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		fx.reset()
		actor, err := tx.GetUserForUpdate(ctx, id.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.Unauthorized, "unknown user")
		}
		if err != nil {
			return err
		}
		if actor.IsLocked {
			return apperr.New(apperr.Forbidden, "account is locked")
		}
		return fn(tx, actor, fx)
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	for _, e := range fx.entries {
		if e.ActorID == 0 {
			e.ActorID = id.UserID
		}
		s.audit.Record(ctx, e)
	}
	for _, n := range fx.notes {
		s.notifier.Notify(ctx, n)
	}
	s.ok(op)
	return nil
}

// read runs fn in a read-only transaction.  A non-empty op is checked
// against the capability table first.
func (s *Service) read(ctx context.Context, op authz.Operation, id identity.Identity, fn func(tx repository.Tx) error) error {
	if op != "" {
		if err := authz.Check(op, id); err != nil {
			return s.fail(ctx, op, err)
		}
	}
	if err := s.store.View(ctx, fn); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

// fail classifies err, counts it and logs unexpected failures.  The
// returned value is always an *apperr.Error.
func (s *Service) fail(ctx context.Context, op authz.Operation, err error) error {
	e := apperr.From(err)
	if e.Kind == apperr.Internal {
		s.logger.ErrorContext(ctx, "operation failed", "operation", string(op), "error", err)
	}
	if op != "" {
		metrics.Operations.WithLabelValues(string(op), string(e.Kind)).Inc()
	}
	return e
}

// bumpViews increments a view counter outside the caller's transaction.
// Failures are logged and otherwise ignored.
func (s *Service) bumpViews(ctx context.Context, what string, id uint64, fn func(tx repository.Tx) (bool, error)) bool {
	var bumped bool
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		ok, err := fn(tx)
		bumped = ok
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "view counter update failed", "target", what, "id", id, "error", err)
		return false
	}
	return bumped
}

// notFound maps repository.ErrNotFound to a NotFound error naming what.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.NotFound, "%s not found", what)
	}
	return err
}
