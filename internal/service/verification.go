package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/audit"
	"github.com/iliyamo/suite-exchange/internal/authz"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/queue"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// SubmitApplicationInput carries a seller verification request.
type SubmitApplicationInput struct {
	SuiteID    uint64  `json:"suite_id"`
	LegalName  string  `json:"legal_name"`
	Phone      string  `json:"phone"`
	Message    string  `json:"message"`
	InviteCode *string `json:"invite_code,omitempty"`
}

func (in SubmitApplicationInput) normalise() (SubmitApplicationInput, error) {
	var err error
	if in.SuiteID == 0 {
		return in, apperr.New(apperr.ValidationError, "suite_id is required")
	}
	if in.LegalName, err = textField("legal name", in.LegalName, 2, 120); err != nil {
		return in, err
	}
	if in.Phone, err = validPhone(in.Phone); err != nil {
		return in, err
	}
	if in.Message, err = textField("message", in.Message, 0, 1000); err != nil {
		return in, err
	}
	if in.InviteCode, err = optionalText("invite code", in.InviteCode, 64); err != nil {
		return in, err
	}
	return in, nil
}

// SubmitApplication files a PENDING application for a suite.  A user may
// only have one open (PENDING or APPROVED) application per suite; the
// caller's row lock serialises concurrent submissions.
func (s *Service) SubmitApplication(ctx context.Context, id identity.Identity, in SubmitApplicationInput) (model.SellerApplication, error) {
	var app model.SellerApplication
	err := s.mutate(ctx, authz.SubmitApplication, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		in, err := in.normalise()
		if err != nil {
			return err
		}
		if _, err := tx.GetSuite(ctx, in.SuiteID); err != nil {
			return notFound(err, "suite")
		}
		existing, err := tx.FindOpenApplication(ctx, actor.ID, in.SuiteID)
		switch {
		case err == nil:
			return apperr.New(apperr.Conflict, "an application for this suite is already %s", existing.Status)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		app = model.SellerApplication{
			UserID:     actor.ID,
			SuiteID:    in.SuiteID,
			LegalName:  in.LegalName,
			Phone:      in.Phone,
			Message:    in.Message,
			InviteCode: in.InviteCode,
			Status:     model.ApplicationPending,
		}
		if err := tx.CreateApplication(ctx, &app); err != nil {
			return err
		}
		fx.record(audit.Entry{
			Action:     audit.ActionApplicationCreated,
			TargetType: audit.TargetApplication,
			TargetID:   app.ID,
			Metadata:   map[string]any{"suite_id": in.SuiteID, "has_invite_code": in.InviteCode != nil},
		})
		return nil
	})
	return app, err
}

// DecideApplication moves a PENDING application to APPROVED or DENIED.
// Approval upgrades a GUEST applicant to SELLER in the same transaction;
// any other role is left alone.  A second decision fails with
// InvalidState.
func (s *Service) DecideApplication(ctx context.Context, id identity.Identity, applicationID uint64, decision model.ApplicationStatus, note *string) (model.SellerApplication, error) {
	var app model.SellerApplication
	err := s.mutate(ctx, authz.DecideApplication, id, func(tx repository.Tx, actor model.User, fx *effects) error {
		if decision != model.ApplicationApproved && decision != model.ApplicationDenied {
			return apperr.New(apperr.ValidationError, "decision must be APPROVED or DENIED")
		}
		note, err := optionalText("note", note, 1000)
		if err != nil {
			return err
		}
		current, err := tx.GetApplication(ctx, applicationID)
		if err != nil {
			return notFound(err, "application")
		}
		if current.Status != model.ApplicationPending {
			return apperr.New(apperr.InvalidState, "application is already %s", current.Status)
		}
		ok, err := tx.DecideApplication(ctx, repository.ApplicationDecision{
			ID:        applicationID,
			Status:    decision,
			DecidedBy: actor.ID,
			Note:      note,
			At:        s.clock(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, "application was decided concurrently")
		}

		upgraded := false
		if decision == model.ApplicationApproved {
			applicant, err := tx.GetUser(ctx, current.UserID)
			if err != nil {
				return fmt.Errorf("load applicant: %w", err)
			}
			if applicant.Role == model.RoleGuest {
				if upgraded, err = tx.UpgradeUserRole(ctx, applicant.ID, model.RoleGuest, model.RoleSeller); err != nil {
					return err
				}
			}
		}
		if app, err = tx.GetApplication(ctx, applicationID); err != nil {
			return err
		}

		action, subject := audit.ActionApplicationDenied, "Your seller application was denied"
		if decision == model.ApplicationApproved {
			action, subject = audit.ActionApplicationApproved, "Your seller application was approved"
		}
		fx.record(audit.Entry{
			Action:     action,
			TargetType: audit.TargetApplication,
			TargetID:   app.ID,
			Metadata: map[string]any{
				"suite_id":      app.SuiteID,
				"applicant_id":  app.UserID,
				"role_upgraded": upgraded,
			},
		})
		n := queue.Notification{
			Kind:       queue.KindApplicationDecided,
			UserID:     app.UserID,
			Subject:    subject,
			TargetType: audit.TargetApplication,
			TargetID:   app.ID,
		}
		if note != nil {
			n.Detail = *note
		}
		fx.notify(n)
		return nil
	})
	return app, err
}

// ListApplications returns applications for review, newest first.  An
// empty status returns all of them.
func (s *Service) ListApplications(ctx context.Context, id identity.Identity, status model.ApplicationStatus) ([]model.SellerApplication, error) {
	if status != "" && status != model.ApplicationPending && status != model.ApplicationApproved && status != model.ApplicationDenied {
		return nil, apperr.New(apperr.ValidationError, "unknown application status %q", status)
	}
	var out []model.SellerApplication
	err := s.read(ctx, authz.ListApplications, id, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListApplications(ctx, repository.ApplicationFilter{Status: status})
		return err
	})
	return out, err
}

// MyApplications returns the caller's own applications.
func (s *Service) MyApplications(ctx context.Context, id identity.Identity) ([]model.SellerApplication, error) {
	var out []model.SellerApplication
	err := s.read(ctx, authz.MyApplications, id, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListApplications(ctx, repository.ApplicationFilter{UserID: id.UserID})
		return err
	})
	return out, err
}
