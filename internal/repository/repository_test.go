package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestCreateUserNormalisesEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("buyer@example.com", "hash", "GUEST", false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{Email: "  Buyer@Example.COM ", PasswordHash: "hash", Role: model.RoleGuest}
	require.NoError(t, NewUserRepo(db).CreateUser(context.Background(), u))
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "buyer@example.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewUserRepo(db).CreateUser(context.Background(), &model.User{Email: "a@b.c", Role: model.RoleGuest})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUpgradeUserRoleIsCompareAndSet(t *testing.T) {
	db, mock := newMock(t)
	q := regexp.QuoteMeta("UPDATE users SET role=?, updated_at=? WHERE id=? AND role=?")
	mock.ExpectExec(q).WithArgs("SELLER", sqlmock.AnyArg(), uint64(3), "GUEST").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("SELLER", sqlmock.AnyArg(), uint64(3), "GUEST").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	ok, err := repo.UpgradeUserRole(context.Background(), 3, model.RoleGuest, model.RoleSeller)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.UpgradeUserRole(context.Background(), 3, model.RoleGuest, model.RoleSeller)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUserNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).GetUser(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecideApplicationOnlyFromPending(t *testing.T) {
	db, mock := newMock(t)
	note := "looks good"
	mock.ExpectExec(regexp.QuoteMeta("SET status=?, decided_by=?, decision_note=?")).
		WithArgs("APPROVED", uint64(2), "looks good", sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewApplicationRepo(db).DecideApplication(context.Background(), ApplicationDecision{
		ID: 11, Status: model.ApplicationApproved, DecidedBy: 2, Note: &note, At: time.Now(),
	})
	require.NoError(t, err)
	assert.False(t, ok, "a row that already left PENDING must not match")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementListingQuantity(t *testing.T) {
	db, mock := newMock(t)
	q := regexp.QuoteMeta("WHERE id = ? AND status = 'ACTIVE' AND quantity >= ?")
	mock.ExpectExec(q).WithArgs(2, sqlmock.AnyArg(), uint64(5), 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(9, sqlmock.AnyArg(), uint64(5), 9).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewListingRepo(db)
	ok, err := repo.DecrementListingQuantity(context.Background(), 5, 2, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.DecrementListingQuantity(context.Background(), 5, 9, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionListingBuildsStatusList(t *testing.T) {
	db, mock := newMock(t)
	reason := "spam"
	mock.ExpectExec(regexp.QuoteMeta("status IN (?,?,?)")).
		WithArgs("MODERATED", "spam", sqlmock.AnyArg(), uint64(4), "ACTIVE", "SOLD", "WITHDRAWN").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := NewListingRepo(db).TransitionListing(context.Background(), 4,
		[]model.ListingStatus{model.ListingActive, model.ListingSold, model.ListingWithdrawn},
		model.ListingModerated, &reason, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListListingsHidesModeratedByDefault(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "seller_id", "suite_id", "event_title", "event_date", "quantity",
		"original_quantity", "price_cents", "delivery_method", "notes", "status", "moderation_reason",
		"view_count", "created_at", "updated_at"}).
		AddRow(1, 2, 3, "Opening night", now, 4, 6, 15000, "PDF", "", "ACTIVE", nil, 0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE suite_id=? AND status <> 'MODERATED' ORDER BY")).
		WithArgs(uint64(3), 50, 0).WillReturnRows(rows)

	out, err := NewListingRepo(db).ListListings(context.Background(), ListingFilter{SuiteID: 3})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.ListingActive, out[0].Status)
	assert.Equal(t, 4, out[0].Quantity)
	assert.Nil(t, out[0].ModerationReason)
}

func TestMarkMessageReadRestrictedToRecipient(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=? AND to_user_id=? AND is_read=0")).
		WithArgs(sqlmock.AnyArg(), uint64(8), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewMessageRepo(db).MarkMessageRead(context.Background(), 8, 2, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListMessagesRejectsUnknownDirection(t *testing.T) {
	db, _ := newMock(t)
	_, err := NewMessageRepo(db).ListMessagesForUser(context.Background(), 1, MessageDirection("sideways"))
	assert.Error(t, err)
}

func TestIncrementReplyCountSkipsLockedDiscussions(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND is_locked = 0")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewDiscussionRepo(db).IncrementReplyCount(context.Background(), 6, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendAuditStoresNullActor(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs("01HZX", nil, "LISTING_CREATED", "listing", uint64(5), `{"quantity":4}`,
			"10.0.0.1", "curl", "req-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))

	e := &model.AuditEvent{EventID: "01HZX", Action: "LISTING_CREATED", TargetType: "listing", TargetID: 5,
		Metadata: []byte(`{"quantity":4}`), IPAddress: "10.0.0.1", UserAgent: "curl", RequestID: "req-1",
		CreatedAt: time.Now()}
	require.NoError(t, NewAuditRepo(db).AppendAudit(context.Background(), e))
	assert.Equal(t, uint64(12), e.ID)
}

func TestMySQLStoreInTxCommitsAndRollsBack(t *testing.T) {
	db, mock := newMock(t)
	store := NewMySQLStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings SET view_count")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := store.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.IncrementListingViews(context.Background(), 1)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = store.InTx(context.Background(), func(tx Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
