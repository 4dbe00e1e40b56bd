package user

import (
	"context"
	"sync"

	"minty/internal/identity/models"
	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

// Store is the user persistence contract the identity service consumes.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

// MemoryStore is an in-memory user store. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]models.User
}

var _ Store = (*MemoryStore)(nil)

func New() *MemoryStore {
	return &MemoryStore{users: make(map[id.UserID]models.User)}
}

func (s *MemoryStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}
