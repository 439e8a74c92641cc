package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"provider/internal/config"
	"provider/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, id int64) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestFailoverListingCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverListingCache(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		listing := &models.Listing{ID: 9000}
		primary.On("Get", ctx, int64(9000)).Return(listing, nil).Once()

		got, err := cache.Get(ctx, 9000)
		assert.NoError(t, err)
		assert.Equal(t, listing, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		listing := &models.Listing{ID: 9001}
		primary.On("Get", ctx, int64(9001)).Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx, int64(9001)).Return(listing, nil).Once()

		got, err := cache.Get(ctx, 9001)
		assert.NoError(t, err)
		assert.Equal(t, listing, got)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetAlreadyDown", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now()
		listing := &models.Listing{ID: 9002}
		fallback.On("Set", ctx, listing).Return(nil).Once()

		assert.NoError(t, cache.Set(ctx, listing))
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "Set", ctx, listing)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)
		listing := &models.Listing{ID: 9003}
		primary.On("Get", ctx, int64(9003)).Return(listing, nil).Once()

		got, err := cache.Get(ctx, 9003)
		assert.NoError(t, err)
		assert.Equal(t, listing, got)
		assert.False(t, cache.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("Get", ctx, int64(9004)).Return(nil, errors.New("still fail")).Once()
		fallback.On("Get", ctx, int64(9004)).Return(nil, nil).Once()

		got, err := cache.Get(ctx, 9004)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetFailover", func(t *testing.T) {
		cache.isDown.Store(false)
		listing := &models.Listing{ID: 9005}
		primary.On("Set", ctx, listing).Return(errors.New("fail")).Once()
		fallback.On("Set", ctx, listing).Return(nil).Once()

		assert.NoError(t, cache.Set(ctx, listing))
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateClearsBoth", func(t *testing.T) {
		cache.isDown.Store(false)
		fallback.On("Invalidate", ctx, int64(9006)).Return(nil).Once()
		primary.On("Invalidate", ctx, int64(9006)).Return(nil).Once()

		assert.NoError(t, cache.Invalidate(ctx, 9006))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidatePrimaryFail", func(t *testing.T) {
		cache.isDown.Store(false)
		fallback.On("Invalidate", ctx, int64(9007)).Return(nil).Once()
		primary.On("Invalidate", ctx, int64(9007)).Return(errors.New("fail")).Once()

		assert.NoError(t, cache.Invalidate(ctx, 9007))
		assert.True(t, cache.isDown.Load())
	})
}

func TestFailoverWithRealCaches(t *testing.T) {
	logger := zerolog.New(io.Discard)
	primary := NewRedisListingCache(nil, time.Minute)
	fallback := NewMemoryListingCache(time.Minute)
	cache := NewFailoverListingCache(primary, fallback, &logger)
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, &models.Listing{ID: 1, Name: "fallback"}))
	got, err := cache.Get(ctx, 1)
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, "fallback", got.Name)
	}
}

func newRedisFailover(t *testing.T) (*miniredis.Miniredis, *FailoverListingCache) {
	t.Helper()
	s := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	t.Cleanup(func() { _ = Close(client) })

	logger := zerolog.New(io.Discard)
	cache := NewFailoverListingCache(
		NewRedisListingCache(client, time.Hour),
		NewMemoryListingCache(time.Hour),
		&logger,
	)
	return s, cache
}

func TestFailoverInvalidateWhilePrimaryDown(t *testing.T) {
	ctx := context.Background()

	t.Run("PrimaryReachable", func(t *testing.T) {
		s, cache := newRedisFailover(t)
		require.NoError(t, cache.Set(ctx, &models.Listing{ID: 9000, Name: "Old"}))

		s.SetError("ERR injected failure")
		_, _ = cache.Get(ctx, 9000)
		require.True(t, cache.isDown.Load())
		s.SetError("")

		require.NoError(t, cache.Invalidate(ctx, 9000))
		assert.False(t, s.Exists("listing:9000"))

		cache.lastCheck = time.Now().Add(-2 * time.Minute)
		got, err := cache.Get(ctx, 9000)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("PrimaryStillFailing", func(t *testing.T) {
		s, cache := newRedisFailover(t)
		require.NoError(t, cache.Set(ctx, &models.Listing{ID: 9000, Name: "Old"}))

		s.SetError("ERR injected failure")
		require.NoError(t, cache.Invalidate(ctx, 9000))
		assert.True(t, cache.isDown.Load())
		assert.Contains(t, cache.pending, int64(9000))

		s.SetError("")
		assert.True(t, s.Exists("listing:9000"))

		cache.lastCheck = time.Now().Add(-2 * time.Minute)
		got, err := cache.Get(ctx, 9000)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, s.Exists("listing:9000"))
		assert.Empty(t, cache.pending)
		assert.False(t, cache.isDown.Load())
	})
}
