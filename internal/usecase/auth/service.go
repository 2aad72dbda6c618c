package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domain "userauth/backend/internal/domain/auth"
)

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users       domain.UserRepository
	credentials domain.CredentialRepository
	hasher      PasswordHasher
	access      TokenManager
	refresh     TokenManager
	logger      *slog.Logger
}

// NewService constructs an auth service. access and refresh must be signed
// with different secrets.
func NewService(
	users domain.UserRepository,
	credentials domain.CredentialRepository,
	hasher PasswordHasher,
	access, refresh TokenManager,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:       users,
		credentials: credentials,
		hasher:      hasher,
		access:      access,
		refresh:     refresh,
		logger:      logger,
	}
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return domain.TokenPair{}, domain.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.TokenPair{}, s.reject(ctx, "login", "user lookup", err, domain.ErrUserNotFound)
	}

	cred, err := s.credentials.GetByUserID(ctx, user.ID)
	if err != nil {
		return domain.TokenPair{}, s.reject(ctx, "login", "credential lookup", err, domain.ErrCredentialNotFound)
	}

	if !s.hasher.Verify(creds.Password, cred.PasswordHash) {
		s.logger.WarnContext(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return domain.TokenPair{}, domain.ErrUnauthorized
	}

	pair, err := s.issue(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "token signing failed", "user_id", user.ID, "error", err)
		return domain.TokenPair{}, domain.ErrUnauthorized
	}
	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID)
	return pair, nil
}

// Validate verifies an access token and returns the principal it names.
func (s *Service) Validate(ctx context.Context, token string) (*domain.Principal, error) {
	user, err := s.resolve(ctx, "validate", s.access, token)
	if err != nil {
		return nil, err
	}
	return domain.NewPrincipal(user), nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, token string) (domain.TokenPair, error) {
	user, err := s.resolve(ctx, "refresh", s.refresh, token)
	if err != nil {
		return domain.TokenPair{}, err
	}
	pair, err := s.issue(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "token signing failed", "user_id", user.ID, "error", err)
		return domain.TokenPair{}, domain.ErrUnauthorized
	}
	return pair, nil
}

// resolve checks signature and expiry, then confirms the subject still exists.
func (s *Service) resolve(ctx context.Context, op string, tokens TokenManager, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		s.logger.WarnContext(ctx, op+" rejected", "reason", "token invalid", "error", err)
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, s.reject(ctx, op, "subject lookup", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (s *Service) issue(user *domain.User) (domain.TokenPair, error) {
	claims := domain.NewClaims(user)
	accessToken, err := s.access.Generate(claims)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refreshToken, err := s.refresh.Generate(claims)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// reject logs why a step failed and collapses it into ErrUnauthorized.
// expected marks the "absent" outcome; anything else is a storage failure.
func (s *Service) reject(ctx context.Context, op, step string, err, expected error) error {
	if errors.Is(err, expected) {
		s.logger.WarnContext(ctx, op+" rejected", "reason", step+" found nothing")
	} else {
		s.logger.ErrorContext(ctx, op+" failed", "step", step, "error", err)
	}
	return domain.ErrUnauthorized
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
