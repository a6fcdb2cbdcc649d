package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// UserRepo provides access to the users table.
type UserRepo struct{ q Querier }

func NewUserRepo(q Querier) *UserRepo { return &UserRepo{q: q} }

const userColumns = "id,email,password_hash,role,is_locked,show_in_directory,created_at,updated_at"

// CreateUser inserts u and populates its ID.  The email is normalised to
// lower case; a duplicate address yields ErrEmailExists.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_locked, show_in_directory, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Email, u.PasswordHash, string(u.Role), u.IsLocked, u.ShowInDirectory, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetUserByEmail fetches a user by normalised email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetUserForUpdate fetches a user and holds its row lock until the
// surrounding transaction ends.
func (r *UserRepo) GetUserForUpdate(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? FOR UPDATE", id)
}

// UpgradeUserRole moves a user from one role to another.  The WHERE clause
// makes it a compare-and-set: it matches nothing if the role already moved.
func (r *UserRepo) UpgradeUserRole(ctx context.Context, id uint64, from, to model.Role) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE id=? AND role=?",
		string(to), time.Now().UTC(), id, string(from)))
}

// SetUserLocked flips the is_locked flag.
func (r *UserRepo) SetUserLocked(ctx context.Context, id uint64, locked bool) (bool, error) {
	return affected(r.q.ExecContext(ctx,
		"UPDATE users SET is_locked=?, updated_at=? WHERE id=?",
		locked, time.Now().UTC(), id))
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	var role string
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsLocked, &u.ShowInDirectory, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.Role = model.Role(role)
	return u, nil
}

// isDuplicate reports a MySQL unique-key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
