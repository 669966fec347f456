package token

import "time"

type Type string

const (
	TypeRefresh Type = "refresh"
	TypeReset   Type = "reset"
)

type Token struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Type      Type      `json:"type" db:"type"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
