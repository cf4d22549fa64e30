package repository

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/domain"
)

// MemoryUserRepository backs profiles when STORE_DRIVER=memory.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
	now   func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User), now: time.Now}
}

func (r *MemoryUserRepository) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[externalID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if prev, ok := r.users[user.ExternalID]; ok {
		user.CreatedAt = prev.CreatedAt
	}
	r.users[user.ExternalID] = *clone(*user)
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.users[user.ExternalID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.CreatedAt = prev.CreatedAt
	user.LastLoginAt = prev.LastLoginAt
	user.UpdatedAt = r.now()
	r.users[user.ExternalID] = *clone(*user)
	return nil
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[externalID]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := r.now()
	u.LastLoginAt = &now
	r.users[externalID] = u
	return nil
}

func clone(u domain.User) *domain.User {
	u.Preferences = maps.Clone(u.Preferences)
	return &u
}
