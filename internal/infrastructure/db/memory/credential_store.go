// Package memory is an in-process CredentialStore for development and tests.
// Records are lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/cinemabook/authgate/internal/core/domain"
)

type CredentialStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

// Create checks and claims the email under the same write lock.
func (s *CredentialStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return domain.ErrDuplicateEmail
	}
	clone := *user
	s.byID[user.ID] = &clone
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *CredentialStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *CredentialStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *CredentialStore) Ping(context.Context) error { return nil }
