package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/iliyamo/suite-exchange/internal/apperr"
	"github.com/iliyamo/suite-exchange/internal/identity"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
	"github.com/iliyamo/suite-exchange/internal/utils"
)

// Register creates a GUEST account.  Higher roles are reached only through
// seller verification or provisioning.
func (s *Service) Register(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return model.User{}, apperr.New(apperr.ValidationError, "a valid email is required")
	}
	if len(password) < 8 || len(password) > utils.MaxPasswordBytes {
		return model.User{}, apperr.New(apperr.ValidationError, "password must be 8 to 72 bytes")
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, s.fail(ctx, "", err)
	}
	u := model.User{Email: email, PasswordHash: hash, Role: model.RoleGuest}
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateUser(ctx, &u)
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return model.User{}, apperr.New(apperr.Conflict, "email already registered")
	}
	if err != nil {
		return model.User{}, s.fail(ctx, "", err)
	}
	return u, nil
}

// Login checks credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, error) {
	var u model.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		u, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !utils.VerifyPassword(u.PasswordHash, password)) {
		return model.User{}, apperr.New(apperr.Unauthorized, "invalid email or password")
	}
	if err != nil {
		return model.User{}, s.fail(ctx, "", err)
	}
	return u, nil
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, id identity.Identity) (model.User, error) {
	if !id.Authenticated() {
		return model.User{}, apperr.New(apperr.Unauthorized, "authentication required")
	}
	var u model.User
	err := s.read(ctx, "", id, func(tx repository.Tx) error {
		var err error
		if u, err = tx.GetUser(ctx, id.UserID); err != nil {
			return notFound(err, "user")
		}
		return nil
	})
	return u, err
}
