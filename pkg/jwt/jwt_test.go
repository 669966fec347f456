package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	tok, err := m.Generate(42, "a@b.c")
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestManager_RejectsForeignAndExpired(t *testing.T) {
	tok, err := NewManager("other", time.Hour).Generate(1, "x@y.z")
	require.NoError(t, err)
	_, err = NewManager("secret", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewManager("secret", -time.Minute).Generate(1, "x@y.z")
	require.NoError(t, err)
	_, err = NewManager("secret", time.Hour).Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("secret", time.Hour).Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
