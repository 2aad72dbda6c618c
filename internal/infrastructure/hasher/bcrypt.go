package hasher

import (
	usecase "userauth/backend/internal/usecase/auth"
	"userauth/backend/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes and verifies passwords with a randomized salt per hash.
type Bcrypt struct {
	cost int
}

// NewBcrypt constructs a hasher. Costs outside bcrypt's range use the default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

var _ usecase.PasswordHasher = (*Bcrypt)(nil)

// Hash returns the encoded bcrypt hash, salt included.
func (b *Bcrypt) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the stored hash. bcrypt ignores bytes
// past the 72nd, so longer input never matches.
func (b *Bcrypt) Verify(plain, hash string) bool {
	if len(plain) > validation.MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
