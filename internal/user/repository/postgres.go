package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"subtrack/internal/user"
)

const selectUser = `SELECT id, username, email, COALESCE(name, '') AS name, password, currency,
		COALESCE(reminder_days, 0) AS reminder_days, COALESCE(email_notifications, false) AS email_notifications,
		deactivated, created_at
	FROM users`

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (username, email, name, password, currency, reminder_days, email_notifications, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.Name, u.Password, u.Currency, u.ReminderDays, u.EmailNotifications,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u := &user.User{}
	if err := r.db.GetContext(ctx, u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users SET
		email = $1, name = $2, password = $3, currency = $4,
		reminder_days = $5, email_notifications = $6, deactivated = $7
		WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		u.Email, u.Name, u.Password, u.Currency, u.ReminderDays, u.EmailNotifications, u.Deactivated, u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
