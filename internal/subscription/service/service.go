package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"subtrack/internal/metrics"
	"subtrack/internal/subscription"
)

type SubscriptionRepository interface {
	GetByID(ctx context.Context, id int64) (*subscription.Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]subscription.Subscription, error)
	Create(ctx context.Context, s *subscription.Subscription) error
	Update(ctx context.Context, s *subscription.Subscription) error
	UpdateRenewal(ctx context.Context, s *subscription.Subscription) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo     SubscriptionRepository
	stats    *cache.Cache
	statsTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo SubscriptionRepository, statsTTL time.Duration, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		stats:    cache.New(statsTTL, 2*statsTTL),
		statsTTL: statsTTL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, userID int64, filter subscription.Filter) ([]subscription.Subscription, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	out := make([]subscription.Subscription, 0, len(subs))
	for _, sub := range subs {
		if filter.Match(sub) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// Get возвращает подписку, только если она принадлежит пользователю.
func (s *Service) Get(ctx context.Context, userID, id int64) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, subscription.ErrForbidden
	}
	return sub, nil
}

func (s *Service) Create(ctx context.Context, userID int64, in subscription.Input) (*subscription.Subscription, error) {
	sub, err := in.Parse(userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	s.invalidate(userID)

	s.logger.Info("subscription created",
		zap.Int64("user_id", userID),
		zap.Int64("subscription_id", sub.ID),
		zap.String("billing_cycle", string(sub.BillingCycle)),
	)
	return &sub, nil
}

func (s *Service) Update(ctx context.Context, userID, id int64, in subscription.Input) (*subscription.Subscription, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	sub, err := in.Parse(userID)
	if err != nil {
		return nil, err
	}
	sub.ID = existing.ID
	sub.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, &sub); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	s.invalidate(userID)
	return &sub, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// Renew продлевает подписку на один платёжный период и делает её активной.
func (s *Service) Renew(ctx context.Context, userID, id int64) (*subscription.Subscription, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	renewed := subscription.Renew(*existing)
	if err := s.repo.UpdateRenewal(ctx, &renewed); err != nil {
		return nil, fmt.Errorf("renew subscription: %w", err)
	}
	s.invalidate(userID)
	metrics.SubscriptionRenewalsTotal.Inc()

	s.logger.Info("subscription renewed",
		zap.Int64("user_id", userID),
		zap.Int64("subscription_id", id),
		zap.Time("next_payment_date", renewed.NextPaymentDate),
	)
	return &renewed, nil
}

// Stats считается на каждый вызов от текущего времени; кэшируется только список подписок.
func (s *Service) Stats(ctx context.Context, userID int64) (subscription.Stats, error) {
	subs, err := s.cachedList(ctx, userID)
	if err != nil {
		return subscription.Stats{}, fmt.Errorf("load subscriptions for stats: %w", err)
	}
	return subscription.ComputeStats(subs, s.now()), nil
}

func (s *Service) CategoryReport(ctx context.Context, userID int64) ([]subscription.CategorySpend, error) {
	subs, err := s.cachedList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions for report: %w", err)
	}
	return subscription.SpendingByCategory(subs), nil
}

func (s *Service) cachedList(ctx context.Context, userID int64) ([]subscription.Subscription, error) {
	// TTL <= 0 отключает кэш: go-cache трактует 0 как "без истечения"
	key := cacheKey(userID)
	if s.statsTTL > 0 {
		if cached, ok := s.stats.Get(key); ok {
			return cached.([]subscription.Subscription), nil
		}
	}

	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.statsTTL > 0 {
		s.stats.SetDefault(key, subs)
	}
	return subs, nil
}

func (s *Service) invalidate(userID int64) {
	s.stats.Delete(cacheKey(userID))
}

func cacheKey(userID int64) string {
	return "subs:" + strconv.FormatInt(userID, 10)
}
