package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "userauth/backend/internal/domain/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepository persists password hashes in the user_auths table.
type CredentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository constructs a repository.
func NewCredentialRepository(pool *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

var _ domain.CredentialRepository = (*CredentialRepository)(nil)

// GetByUserID fetches the credential belonging to a user.
func (r *CredentialRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Credential, error) {
	const query = `
SELECT user_id, hashed_password, created_at, updated_at
FROM user_auths WHERE user_id = $1
`
	var c domain.Credential
	err := r.pool.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

// UpdatePassword replaces the stored password hash for a user.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string, updatedAt time.Time) error {
	const query = `
UPDATE user_auths
SET hashed_password = $2, updated_at = $3
WHERE user_id = $1
`
	ct, err := r.pool.Exec(ctx, query, userID, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}
