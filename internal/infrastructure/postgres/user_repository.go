package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "userauth/backend/internal/domain/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create inserts the user and its credential in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	const insertUser = `
INSERT INTO users (email, created_at, updated_at)
VALUES ($1, $2, $3)
RETURNING user_id
`
	const insertAuth = `
INSERT INTO user_auths (user_id, hashed_password, created_at, updated_at)
VALUES ($1, $2, $3, $4)
`
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertUser, user.Email, user.CreatedAt, user.UpdatedAt).Scan(&user.ID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertAuth, user.ID, passwordHash, user.CreatedAt, user.UpdatedAt)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
SELECT user_id, email, created_at, updated_at
FROM users WHERE email = $1
`
	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
SELECT user_id, email, created_at, updated_at
FROM users WHERE user_id = $1
`
	return r.getOne(ctx, query, id)
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	const query = `
SELECT user_id, email, created_at, updated_at
FROM users
ORDER BY user_id ASC
`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update modifies the email of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
UPDATE users
SET email = $2, updated_at = $3
WHERE user_id = $1
RETURNING user_id, email, created_at, updated_at
`
	updated, err := scanUser(r.pool.QueryRow(ctx, query, user.ID, user.Email, user.UpdatedAt))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.ErrUserNotFound
		case isUniqueViolation(err):
			return domain.ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	*user = *updated
	return nil
}

// Delete removes a user by id. The credential row goes with it via ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
DELETE FROM users WHERE user_id = $1
RETURNING user_id, email, created_at, updated_at
`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
