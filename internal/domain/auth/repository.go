package auth

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create stores the user together with its credential and assigns user.ID.
	Create(ctx context.Context, user *User, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	// Delete removes the user and its credential, returning the removed user.
	Delete(ctx context.Context, id int64) (*User, error)
}

// CredentialRepository defines persistence operations for password hashes.
type CredentialRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*Credential, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string, updatedAt time.Time) error
}
