package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	domain "userauth/backend/internal/domain/auth"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestDatabase_SQLHandleOpenedOnce(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://app@127.0.0.1:1/app")
	require.NoError(t, err)
	db := &Database{Pool: pool}

	first := db.sqlHandle()
	assert.Same(t, first, db.sqlHandle())

	db.Close()
	assert.ErrorContains(t, first.Ping(), "database is closed")
	db.Close()
}

// openTestDatabase connects to TEST_DATABASE_URL, migrates it and empties the
// tables. The test is skipped when the variable is unset.
func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, "TRUNCATE users RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return db
}

func TestRepositories(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()
	users := NewUserRepository(db.Pool)
	credentials := NewCredentialRepository(db.Pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	alice := &domain.User{Email: "alice@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, alice, "hash-1"))
	assert.Positive(t, alice.ID)

	dup := &domain.User{Email: "alice@example.com", CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, users.Create(ctx, dup, "hash-2"), domain.ErrEmailExists)

	got, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	cred, err := credentials.GetByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", cred.PasswordHash)

	require.NoError(t, credentials.UpdatePassword(ctx, alice.ID, "hash-3", now.Add(time.Second)))
	cred, err = credentials.GetByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-3", cred.PasswordHash)

	bob := &domain.User{Email: "bob@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, bob, "hash-b"))
	bob.Email = "alice@example.com"
	assert.ErrorIs(t, users.Update(ctx, bob), domain.ErrEmailExists)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, alice.ID, list[0].ID)

	deleted, err := users.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", deleted.Email)

	_, err = users.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = credentials.GetByUserID(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.ErrorIs(t, credentials.UpdatePassword(ctx, alice.ID, "x", now), domain.ErrCredentialNotFound)
	_, err = users.Delete(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
