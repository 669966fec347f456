package repository

import (
	"context"
	"sync"
	"time"

	"subtrack/internal/token"
)

type MemoryTokenRepository struct {
	mu     sync.Mutex
	nextID int64
	tokens map[string]token.Token
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{nextID: 1, tokens: make(map[string]token.Token)}
}

func (r *MemoryTokenRepository) Save(_ context.Context, t *token.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	r.tokens[t.Token] = *t
	return nil
}

func (r *MemoryTokenRepository) GetByToken(_ context.Context, tokenStr string, typ token.Type) (*token.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenStr]
	if !ok || t.Type != typ {
		return nil, token.ErrInvalidToken
	}
	return &t, nil
}

func (r *MemoryTokenRepository) DeleteByToken(_ context.Context, tokenStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, tokenStr)
	return nil
}

func (r *MemoryTokenRepository) DeleteByUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}
