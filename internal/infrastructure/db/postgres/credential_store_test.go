package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinemabook/authgate/internal/core/domain"
)

var userColumns = []string{"id", "email", "display_name", "password_hash", "role", "created_at", "updated_at"}

func sampleUser() *domain.User {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.User{
		ID:           "4b7c1f1a-3d55-4a45-8d0c-3f1b6f0b8a11",
		Email:        "pg@example.com",
		DisplayName:  "Pg",
		PasswordHash: "$2a$12$hash",
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCredentialStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := sampleUser()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(u.ID, u.Email, u.DisplayName, u.PasswordHash, "CUSTOMER", u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewCredentialStore(db)
	require.NoError(t, store.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_Create_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	store := NewCredentialStore(db)
	err = store.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_Create_OtherError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("connection reset"))

	store := NewCredentialStore(db)
	err = store.Create(context.Background(), sampleUser())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDuplicateEmail))
}

func TestCredentialStore_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("pg@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(u.ID, u.Email, u.DisplayName, u.PasswordHash, "ADMIN", u.CreatedAt, u.UpdatedAt))

	store := NewCredentialStore(db)
	got, err := store.FindByEmail(context.Background(), "pg@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))

	store := NewCredentialStore(db)
	_, err = store.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCredentialStore_FindByID_CorruptRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(u.ID).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(u.ID, u.Email, u.DisplayName, u.PasswordHash, "ROOT", u.CreatedAt, u.UpdatedAt))

	store := NewCredentialStore(db)
	_, err = store.FindByID(context.Background(), u.ID)
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
