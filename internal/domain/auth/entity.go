package auth

import (
	"errors"
	"time"
)

var (
	// ErrUnauthorized covers every authentication failure. Callers cannot
	// tell a missing user from a wrong password or an invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrCredentialNotFound indicates the user has no stored password hash.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrPasswordMismatch indicates the current password is incorrect.
	ErrPasswordMismatch = errors.New("current password does not match")
	// ErrPasswordUnchanged indicates the new password matches the current one.
	ErrPasswordUnchanged = errors.New("new password must be different from current password")
)

// User is the identity record persisted in storage.
type User struct {
	ID        int64     `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Credential holds the password hash of exactly one user. It never leaves
// the authentication flow.
type Credential struct {
	UserID       int64
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// Claims is the payload embedded in access and refresh tokens.
type Claims struct {
	Subject  int64
	Username string
}

// TokenPair is returned by a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Principal is the request-scoped view of an authenticated user.
type Principal struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// NewClaims builds the token payload for a user.
func NewClaims(u *User) Claims {
	return Claims{Subject: u.ID, Username: u.Email}
}

// NewPrincipal reduces a user to the fields safe to expose.
func NewPrincipal(u *User) *Principal {
	return &Principal{UserID: u.ID, Email: u.Email}
}
