package repository

import (
	"context"
	"testing"
	"time"

	"provider/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryListingCache(t *testing.T) {
	cache := NewMemoryListingCache(time.Minute)
	ctx := context.Background()

	got, err := cache.Get(ctx, 9000)
	require.NoError(t, err)
	assert.Nil(t, got)

	listing := &models.Listing{ID: 9000, Name: "Casa Azul"}
	require.NoError(t, cache.Set(ctx, listing))

	got, err = cache.Get(ctx, 9000)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Casa Azul", got.Name)

	// callers get a copy
	got.Name = "changed"
	again, _ := cache.Get(ctx, 9000)
	assert.Equal(t, "Casa Azul", again.Name)

	require.NoError(t, cache.Invalidate(ctx, 9000))
	got, err = cache.Get(ctx, 9000)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryListingCacheExpiry(t *testing.T) {
	cache := NewMemoryListingCache(time.Minute)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.Listing{ID: 1}))

	now = now.Add(30 * time.Second)
	got, _ := cache.Get(ctx, 1)
	assert.NotNil(t, got)

	now = now.Add(time.Minute)
	got, _ = cache.Get(ctx, 1)
	assert.Nil(t, got)
}
