package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"subtrack/internal/token"
)

type TokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, t *token.Token) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO auth_tokens (user_id, token, type, expires_at) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		t.UserID, t.Token, t.Type, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt)
}

func (r *TokenRepository) GetByToken(ctx context.Context, tokenStr string, typ token.Type) (*token.Token, error) {
	t := &token.Token{}
	err := r.db.GetContext(ctx, t,
		`SELECT id, user_id, token, type, expires_at, created_at FROM auth_tokens WHERE token = $1 AND type = $2`,
		tokenStr, typ)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	return t, nil
}

func (r *TokenRepository) DeleteByToken(ctx context.Context, tokenStr string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE token = $1`,
		tokenStr)
	return err
}

// DeleteByUser отзывает все токены пользователя (смена пароля, деактивация).
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE user_id = $1`,
		userID)
	return err
}
