package service

import (
	"context"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/authz"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// SetUserLocked locks or unlocks an account.  Locked users keep read
// access but every state-changing operation rejects them.
func (s *Service) SetUserLocked(ctx context.Context, id identity.Identity, userID uint64, locked bool) (model.User, error) {
	var u model.User
	err := s.mutate(ctx, authz.LockUser, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		if userID == actor.ID {
			return apperr.New(apperr.ValidationError, "you cannot lock or unlock your own account")
		}
		current, err := tx.GetUser(ctx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if current.IsLocked == locked {
			u = current
			return nil
		}
		if _, err := tx.SetUserLocked(ctx, userID, locked); err != nil {
			return err
		}
		if u, err = tx.GetUser(ctx, userID); err != nil {
			return err
		}
		action := audit.ActionUserUnlocked
		if locked {
			action = audit.ActionUserLocked
		}
		fx.record(audit.Entry{Action: action, TargetType: audit.TargetUser, TargetID: userID})
		return nil
	})
	return u, err
}

// ListAuditEvents returns audit events, newest first.
func (s *Service) ListAuditEvents(ctx context.Context, id identity.Identity, f repository.AuditFilter) ([]model.AuditEvent, error) {
	var out []model.AuditEvent
	err := s.read(ctx, authz.ListAudit, id, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListAuditEvents(ctx, f)
		return err
	})
	return out, err
}

// ListSuites returns the venue's suites.  It is public.
func (s *Service) ListSuites(ctx context.Context) ([]model.Suite, error) {
	var out []model.Suite
	err := s.read(ctx, "", identity.Anonymous(), func(tx repository.Tx) error {
		var err error
		out, err = tx.ListSuites(ctx)
		return err
	})
	return out, err
}
