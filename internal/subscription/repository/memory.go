package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"subtrack/internal/subscription"
)

// MemoryRepository хранит подписки в памяти процесса: для тестов и запуска без базы.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]subscription.Subscription
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		items:  make(map[int64]subscription.Subscription),
		now:    time.Now,
	}
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*subscription.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]subscription.Subscription, error) {
	return r.list(func(s subscription.Subscription) bool { return s.UserID == userID }), nil
}

func (r *MemoryRepository) ListActive(_ context.Context) ([]subscription.Subscription, error) {
	return r.list(func(s subscription.Subscription) bool { return s.Status == subscription.StatusActive }), nil
}

func (r *MemoryRepository) list(keep func(subscription.Subscription) bool) []subscription.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []subscription.Subscription
	for _, s := range r.items {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryRepository) Create(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = r.nextID
	r.nextID++
	s.CreatedAt = r.now()
	r.items[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[s.ID]
	if !ok {
		return subscription.ErrNotFound
	}
	s.UserID = existing.UserID
	s.CreatedAt = existing.CreatedAt
	r.items[s.ID] = *s
	return nil
}

func (r *MemoryRepository) UpdateRenewal(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[s.ID]
	if !ok {
		return subscription.ErrNotFound
	}
	existing.NextPaymentDate = s.NextPaymentDate
	existing.Status = s.Status
	r.items[s.ID] = existing
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return subscription.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
