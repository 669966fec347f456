package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"subtrack/internal/subscription"
)

const selectColumns = `SELECT id, user_id, name, category, plan, amount, billing_cycle, next_payment_date,
		status, COALESCE(reminder, '') AS reminder, COALESCE(notes, '') AS notes, created_at
	FROM subscriptions`

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	sub := &subscription.Subscription{}
	err := r.db.GetContext(ctx, sub, selectColumns+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subscription.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]subscription.Subscription, error) {
	var subs []subscription.Subscription
	err := r.db.SelectContext(ctx, &subs, selectColumns+` WHERE user_id = $1 ORDER BY next_payment_date, id`, userID)
	return subs, err
}

// ListActive делает выборку по всем пользователям для ежедневной рассылки напоминаний
func (r *SubscriptionRepository) ListActive(ctx context.Context) ([]subscription.Subscription, error) {
	var subs []subscription.Subscription
	err := r.db.SelectContext(ctx, &subs, selectColumns+` WHERE status = $1 ORDER BY id`, subscription.StatusActive)
	return subs, err
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `INSERT INTO subscriptions
		(user_id, name, category, plan, amount, billing_cycle, next_payment_date, status, reminder, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		s.UserID, s.Name, s.Category, s.Plan, s.Amount, s.BillingCycle,
		s.NextPaymentDate, s.Status, s.Reminder, s.Notes,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *SubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `UPDATE subscriptions SET
		name = $1, category = $2, plan = $3, amount = $4, billing_cycle = $5,
		next_payment_date = $6, status = $7, reminder = $8, notes = $9
		WHERE id = $10
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.Category, s.Plan, s.Amount, s.BillingCycle,
		s.NextPaymentDate, s.Status, s.Reminder, s.Notes, s.ID,
	).Scan(&s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.ErrNotFound
	}
	return err
}

// UpdateRenewal меняет дату платежа и статус одним запросом.
func (r *SubscriptionRepository) UpdateRenewal(ctx context.Context, s *subscription.Subscription) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET next_payment_date = $1, status = $2 WHERE id = $3`,
		s.NextPaymentDate, s.Status, s.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return subscription.ErrNotFound
	}
	return nil
}
