package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subtrack/internal/metrics"
	"subtrack/internal/reminder"
	"subtrack/internal/subscription"
	"subtrack/internal/user"
)

type SubscriptionRepository interface {
	ListActive(ctx context.Context) ([]subscription.Subscription, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatch описывает одно напоминание, выбранное за проход.
type Dispatch struct {
	SubscriptionID int64
	Name           string
	To             string
	NextPayment    time.Time
	LeadDays       int
	Err            error
}

type Result struct {
	RunID      string
	Scanned    int
	Skipped    int
	Due        int
	Sent       int
	Failed     int
	Dispatches []Dispatch
}

type Jobs struct {
	subs   SubscriptionRepository
	users  UserRepository
	sender EmailSender
	logger *zap.Logger
	dryRun bool
}

type Option func(*Jobs)

// WithDryRun отбирает напоминания, но не отправляет письма.
func WithDryRun() Option {
	return func(j *Jobs) { j.dryRun = true }
}

func NewJobs(subs SubscriptionRepository, users UserRepository, sender EmailSender, logger *zap.Logger, opts ...Option) *Jobs {
	j := &Jobs{
		subs:   subs,
		users:  users,
		sender: sender,
		logger: logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run выполняет один проход по активным подпискам. Ошибка отправки одного письма
// не прерывает проход; повторных попыток нет.
func (j *Jobs) Run(ctx context.Context, now time.Time) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := j.logger.With(zap.String("run_id", res.RunID))
	start := time.Now()

	log.Info("starting reminder job", zap.Time("now", now), zap.Bool("dry_run", j.dryRun))

	subs, err := j.subs.ListActive(ctx)
	if err != nil {
		metrics.ReminderRunsTotal.WithLabelValues("error").Inc()
		log.Error("failed to list active subscriptions", zap.Error(err))
		return res, fmt.Errorf("list active subscriptions: %w", err)
	}

	owners := make(map[int64]*user.User)
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			metrics.ReminderRunsTotal.WithLabelValues("error").Inc()
			log.Warn("reminder job interrupted", zap.Int("scanned", res.Scanned), zap.Error(err))
			return res, err
		}
		res.Scanned++

		owner, err := j.owner(ctx, owners, sub.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				res.Skipped++
				log.Warn("subscription owner not found", zap.Int64("subscription_id", sub.ID), zap.Int64("user_id", sub.UserID))
				continue
			}
			res.Failed++
			log.Error("failed to load subscription owner", zap.Int64("subscription_id", sub.ID), zap.Error(err))
			continue
		}
		if !owner.EmailNotifications || owner.Deactivated {
			res.Skipped++
			continue
		}

		lead := reminder.LeadDays(sub.Reminder, owner.ReminderDays)
		if !reminder.IsDue(sub.NextPaymentDate, lead, now) {
			continue
		}
		res.Due++

		d := Dispatch{
			SubscriptionID: sub.ID,
			Name:           sub.Name,
			To:             owner.Email,
			NextPayment:    sub.NextPaymentDate,
			LeadDays:       lead,
		}
		if !j.dryRun {
			d.Err = j.send(ctx, sub, *owner, lead)
			if d.Err != nil {
				res.Failed++
				log.Error("failed to send reminder", zap.Int64("subscription_id", sub.ID), zap.Int64("user_id", owner.ID), zap.Error(d.Err))
			} else {
				res.Sent++
				log.Info("reminder sent", zap.Int64("subscription_id", sub.ID), zap.Int64("user_id", owner.ID), zap.Int("lead_days", lead))
			}
		}
		res.Dispatches = append(res.Dispatches, d)
	}

	metrics.ReminderRunsTotal.WithLabelValues("ok").Inc()
	metrics.ReminderRunDuration.Observe(time.Since(start).Seconds())
	log.Info("reminder job finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("skipped", res.Skipped),
		zap.Int("due", res.Due),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (j *Jobs) send(ctx context.Context, sub subscription.Subscription, owner user.User, lead int) error {
	msg := reminder.Compose(sub, owner, lead)
	if err := j.sender.Send(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		metrics.ReminderEmailsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.ReminderEmailsTotal.WithLabelValues("sent").Inc()
	return nil
}

// owner кэширует владельцев в пределах одного прохода.
func (j *Jobs) owner(ctx context.Context, cache map[int64]*user.User, id int64) (*user.User, error) {
	if u, ok := cache[id]; ok {
		return u, nil
	}
	u, err := j.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = u
	return u, nil
}
