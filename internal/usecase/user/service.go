package user

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "userauth/backend/internal/domain/auth"
	authusecase "userauth/backend/internal/usecase/auth"
	"userauth/backend/internal/validation"
)

// Service provides user management use cases.
type Service struct {
	users       domain.UserRepository
	credentials domain.CredentialRepository
	hasher      authusecase.PasswordHasher
	nowFunc     func() time.Time
}

// NewService constructs a user service around the provided repositories.
func NewService(users domain.UserRepository, credentials domain.CredentialRepository, hasher authusecase.PasswordHasher) *Service {
	return &Service{
		users:       users,
		credentials: credentials,
		hasher:      hasher,
		nowFunc:     time.Now,
	}
}

// CreateInput defines the payload to create a new user.
type CreateInput struct {
	Email    string
	Password string
}

// UpdateInput defines the payload to update a user.
type UpdateInput struct {
	Email string
}

// ChangePasswordInput carries the current and the replacement password.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// List returns all users ordered by id.
func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create persists a new user and its credential.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	var errs validation.Errors
	errs.Required("email", email)
	errs.Required("password", input.Password)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	user := &domain.User{
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user, hashed); err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes the email of an existing user.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	var errs validation.Errors
	if !errs.Required("email", email) {
		return nil, errs
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.UpdatedAt = s.nowFunc().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user and returns the record as it was.
func (s *Service) Delete(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.Delete(ctx, id)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id int64, input ChangePasswordInput) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}

	cred, err := s.credentials.GetByUserID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.ErrPasswordMismatch
		}
		return err
	}
	if !s.hasher.Verify(input.OldPassword, cred.PasswordHash) {
		return domain.ErrPasswordMismatch
	}
	if input.OldPassword == input.NewPassword {
		return domain.ErrPasswordUnchanged
	}

	hashed, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	return s.credentials.UpdatePassword(ctx, id, hashed, s.nowFunc().UTC())
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
