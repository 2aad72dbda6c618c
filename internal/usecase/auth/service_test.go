package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	domain "userauth/backend/internal/domain/auth"
	"userauth/backend/internal/infrastructure/hasher"
	"userauth/backend/internal/infrastructure/memory"
	"userauth/backend/internal/infrastructure/token"
	"userauth/backend/internal/usecase/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	aliceEmail    = "alice@example.com"
	alicePassword = "Aa123456??"
)

type serviceTest struct {
	svc     *auth.Service
	store   *memory.Store
	access  *token.JWTManager
	refresh *token.JWTManager
	hasher  *hasher.Bcrypt
}

func newServiceTest(t *testing.T) *serviceTest {
	t.Helper()
	store := memory.NewStore()
	return newServiceTestWith(t, store, store)
}

func newServiceTestWith(t *testing.T, users domain.UserRepository, creds domain.CredentialRepository) *serviceTest {
	t.Helper()
	st := &serviceTest{
		access:  token.NewJWTManager("access-secret", 15*time.Minute, "userauth"),
		refresh: token.NewJWTManager("refresh-secret", 7*24*time.Hour, "userauth"),
		hasher:  hasher.NewBcrypt(bcrypt.MinCost),
	}
	if s, ok := users.(*memory.Store); ok {
		st.store = s
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st.svc = auth.NewService(users, creds, st.hasher, st.access, st.refresh, logger)
	return st
}

func (st *serviceTest) register(t *testing.T, users domain.UserRepository, email, password string) *domain.User {
	t.Helper()
	hash, err := st.hasher.Hash(password)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &domain.User{Email: email, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(context.Background(), u, hash))
	return u
}

func TestService_Login(t *testing.T) {
	t.Run("ok, returns two distinct tokens", func(t *testing.T) {
		st := newServiceTest(t)
		st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	})

	t.Run("ok, email is case insensitive", func(t *testing.T) {
		st := newServiceTest(t)
		st.register(t, st.store, aliceEmail, alicePassword)

		_, err := st.svc.Login(context.Background(), domain.Credentials{Email: " Alice@Example.COM ", Password: alicePassword})
		require.NoError(t, err)
	})

	t.Run("fail, wrong password", func(t *testing.T) {
		st := newServiceTest(t)
		st.register(t, st.store, aliceEmail, alicePassword)

		_, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword + "x"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, password extended past 72 bytes", func(t *testing.T) {
		st := newServiceTest(t)
		long := "Aa1?" + strings.Repeat("b", 68)
		st.register(t, st.store, aliceEmail, long)

		_, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: long})
		require.NoError(t, err)
		_, err = st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: long + "x"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, unknown email", func(t *testing.T) {
		st := newServiceTest(t)
		st.register(t, st.store, aliceEmail, alicePassword)

		_, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail + "xxx", Password: alicePassword})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, empty input", func(t *testing.T) {
		st := newServiceTest(t)
		_, err := st.svc.Login(context.Background(), domain.Credentials{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, user without credential", func(t *testing.T) {
		store := memory.NewStore()
		st := newServiceTestWith(t, store, missingCredentials{})
		st.register(t, store, aliceEmail, alicePassword)

		_, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, storage error collapses to unauthorized", func(t *testing.T) {
		st := newServiceTestWith(t, failingUsers{}, missingCredentials{})

		_, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.NotContains(t, err.Error(), alicePassword)
	})
}

func TestService_Validate(t *testing.T) {
	t.Run("ok, principal of logged in user", func(t *testing.T) {
		st := newServiceTest(t)
		u := st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)

		p, err := st.svc.Validate(context.Background(), pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, &domain.Principal{UserID: u.ID, Email: aliceEmail}, p)
	})

	t.Run("fail, refresh token is not an access token", func(t *testing.T) {
		st := newServiceTest(t)
		st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)

		_, err = st.svc.Validate(context.Background(), pair.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, wrong secret", func(t *testing.T) {
		st := newServiceTest(t)
		u := st.register(t, st.store, aliceEmail, alicePassword)

		forged, err := token.NewJWTManager("other-secret", time.Hour, "userauth").Generate(domain.NewClaims(u))
		require.NoError(t, err)

		_, err = st.svc.Validate(context.Background(), forged)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, expired", func(t *testing.T) {
		st := newServiceTest(t)
		u := st.register(t, st.store, aliceEmail, alicePassword)

		expired, err := token.NewJWTManager("access-secret", -time.Minute, "userauth").Generate(domain.NewClaims(u))
		require.NoError(t, err)

		_, err = st.svc.Validate(context.Background(), expired)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, malformed or empty", func(t *testing.T) {
		st := newServiceTest(t)
		for _, tok := range []string{"", "   ", "garbage"} {
			_, err := st.svc.Validate(context.Background(), tok)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		}
	})

	t.Run("fail, subject deleted after issuance", func(t *testing.T) {
		st := newServiceTest(t)
		u := st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)

		_, err = st.store.Delete(context.Background(), u.ID)
		require.NoError(t, err)

		_, err = st.svc.Validate(context.Background(), pair.AccessToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestService_Refresh(t *testing.T) {
	t.Run("ok, issues a new usable pair", func(t *testing.T) {
		st := newServiceTest(t)
		u := st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)

		next, err := st.svc.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)

		p, err := st.svc.Validate(context.Background(), next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
	})

	t.Run("fail, access token rejected", func(t *testing.T) {
		st := newServiceTest(t)
		st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)

		_, err = st.svc.Refresh(context.Background(), pair.AccessToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("fail, subject deleted", func(t *testing.T) {
		st := newServiceTest(t)
		u := st.register(t, st.store, aliceEmail, alicePassword)

		pair, err := st.svc.Login(context.Background(), domain.Credentials{Email: aliceEmail, Password: alicePassword})
		require.NoError(t, err)
		_, err = st.store.Delete(context.Background(), u.ID)
		require.NoError(t, err)

		_, err = st.svc.Refresh(context.Background(), pair.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

var errDBDown = errors.New("db down")

type missingCredentials struct{}

func (missingCredentials) GetByUserID(context.Context, int64) (*domain.Credential, error) {
	return nil, domain.ErrCredentialNotFound
}

func (missingCredentials) UpdatePassword(context.Context, int64, string, time.Time) error {
	return domain.ErrCredentialNotFound
}

type failingUsers struct{}

func (failingUsers) Create(context.Context, *domain.User, string) error { return errDBDown }
func (failingUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errDBDown
}
func (failingUsers) GetByID(context.Context, int64) (*domain.User, error) { return nil, errDBDown }
func (failingUsers) List(context.Context) ([]*domain.User, error)         { return nil, errDBDown }
func (failingUsers) Update(context.Context, *domain.User) error           { return errDBDown }
func (failingUsers) Delete(context.Context, int64) (*domain.User, error)  { return nil, errDBDown }
