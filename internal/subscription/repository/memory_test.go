package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/subscription"
)

func TestMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	s := &subscription.Subscription{UserID: 1, Name: "Netflix", Amount: decimal.NewFromInt(15), Status: subscription.StatusActive}
	require.NoError(t, repo.Create(ctx, s))
	assert.Equal(t, int64(1), s.ID)
	assert.False(t, s.CreatedAt.IsZero())

	other := &subscription.Subscription{UserID: 2, Name: "Spotify", Status: subscription.StatusCanceled}
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", got.Name)

	mine, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	if assert.Len(t, active, 1) {
		assert.Equal(t, s.ID, active[0].ID)
	}

	s.Name = "Netflix 4K"
	s.UserID = 99
	require.NoError(t, repo.Update(ctx, s))
	got, _ = repo.GetByID(ctx, s.ID)
	assert.Equal(t, "Netflix 4K", got.Name)
	assert.Equal(t, int64(1), got.UserID, "owner is immutable")

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, subscription.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, s.ID), subscription.ErrNotFound)
}

func TestMemoryRepository_UpdateRenewalOnlyTouchesDateAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := &subscription.Subscription{UserID: 1, Name: "Gym", Status: subscription.StatusExpired}
	require.NoError(t, repo.Create(ctx, s))

	next := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateRenewal(ctx, &subscription.Subscription{ID: s.ID, NextPaymentDate: next, Status: subscription.StatusActive}))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gym", got.Name)
	assert.Equal(t, next, got.NextPaymentDate)
	assert.Equal(t, subscription.StatusActive, got.Status)
}

func TestMemoryRepository_KeepsPaymentTimeOfDay(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	next := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	s := &subscription.Subscription{UserID: 1, Name: "Netflix", NextPaymentDate: next, Status: subscription.StatusActive}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, next.Equal(got.NextPaymentDate))
}
