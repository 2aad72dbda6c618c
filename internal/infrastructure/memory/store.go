// Package memory keeps users and credentials in process memory. It backs the
// "memory" storage driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "userauth/backend/internal/domain/auth"
)

// Store implements the user and credential repositories over maps.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	users       map[int64]domain.User
	byEmail     map[string]int64
	credentials map[int64]domain.Credential
}

// NewStore returns an empty store. Ids start at 1.
func NewStore() *Store {
	return &Store{
		nextID:      1,
		users:       make(map[int64]domain.User),
		byEmail:     make(map[string]int64),
		credentials: make(map[int64]domain.Credential),
	}
}

var (
	_ domain.UserRepository       = (*Store)(nil)
	_ domain.CredentialRepository = (*Store)(nil)
)

// Create inserts the user and its credential.
func (s *Store) Create(_ context.Context, user *domain.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return domain.ErrEmailExists
	}

	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	s.credentials[user.ID] = domain.Credential{
		UserID:       user.ID,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	return nil
}

// GetByEmail fetches a user by email.
func (s *Store) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

// GetByID fetches a user by id.
func (s *Store) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// List returns all users ordered by id.
func (s *Store) List(_ context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update replaces the email and update timestamp of an existing user.
func (s *Store) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if owner, taken := s.byEmail[user.Email]; taken && owner != user.ID {
		return domain.ErrEmailExists
	}

	delete(s.byEmail, current.Email)
	current.Email = user.Email
	current.UpdatedAt = user.UpdatedAt
	s.users[user.ID] = current
	s.byEmail[current.Email] = user.ID
	*user = current
	return nil
}

// Delete removes the user and its credential.
func (s *Store) Delete(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	delete(s.users, id)
	delete(s.byEmail, u.Email)
	delete(s.credentials, id)
	return &u, nil
}

// GetByUserID fetches the credential of a user.
func (s *Store) GetByUserID(_ context.Context, userID int64) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.credentials[userID]
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return &c, nil
}

// UpdatePassword replaces the stored hash.
func (s *Store) UpdatePassword(_ context.Context, userID int64, passwordHash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.credentials[userID]
	if !ok {
		return domain.ErrCredentialNotFound
	}
	c.PasswordHash = passwordHash
	c.UpdatedAt = updatedAt
	s.credentials[userID] = c
	return nil
}

