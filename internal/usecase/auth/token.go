package auth

import domain "userauth/backend/internal/domain/auth"

// TokenManager abstracts token issuance and verification for one secret.
type TokenManager interface {
	Generate(claims domain.Claims) (string, error)
	Validate(token string) (domain.Claims, error)
}

// PasswordHasher hashes plaintext passwords and checks them against a hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
