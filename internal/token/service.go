package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// ResetTTL задаёт срок жизни ссылки для сброса пароля
const ResetTTL = 24 * time.Hour

func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func NewRefreshToken(userID int64, ttl time.Duration) (*Token, error) {
	return newToken(userID, TypeRefresh, ttl)
}

func NewResetToken(userID int64) (*Token, error) {
	return newToken(userID, TypeReset, ResetTTL)
}

func newToken(userID int64, typ Type, ttl time.Duration) (*Token, error) {
	tokenStr, err := GenerateToken(32)
	if err != nil {
		return nil, err
	}

	return &Token{
		UserID:    userID,
		Token:     tokenStr,
		Type:      typ,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}
