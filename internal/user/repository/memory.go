package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"subtrack/internal/user"
)

type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]user.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, users: make(map[int64]user.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return user.ErrUserExists
		}
	}
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return r.find(func(u user.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*user.User, error) {
	return r.find(func(u user.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *MemoryUserRepository) find(match func(user.User) bool) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *MemoryUserRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	u.Username = existing.Username
	u.CreatedAt = existing.CreatedAt
	r.users[u.ID] = *u
	return nil
}
