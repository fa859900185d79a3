package auth

import (
	"context"
	"sync"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// NewInMemoryCredentialStore returns a CredentialStore backed by an
// in-memory map. Used by tests and local development.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{users: make(map[string]models.User)}
}

// InMemoryCredentialStore implements CredentialStore without a database.
type InMemoryCredentialStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// Put inserts or replaces a user record.
func (s *InMemoryCredentialStore) Put(user models.User) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
}

// Delete removes a user record. Useful for simulating concurrent deletion.
func (s *InMemoryCredentialStore) Delete(id string) {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
}

// FindByIdentifier matches the identifier against username or email.
func (s *InMemoryCredentialStore) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

// FindByID fetches a user by id.
func (s *InMemoryCredentialStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// SetRefreshToken overwrites the stored refresh token for the user.
func (s *InMemoryCredentialStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

// SetPasswordHash overwrites the stored password hash for the user.
func (s *InMemoryCredentialStore) SetPasswordHash(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = hash
	s.users[userID] = user
	return nil
}

var _ CredentialStore = (*InMemoryCredentialStore)(nil)
