package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverListingCache reads and writes the primary until it errors, then
// serves from the fallback and retries the primary once a minute.
// Invalidations the primary missed are replayed before it serves reads again.
type FailoverListingCache struct {
	primary  domain.ListingCache
	fallback domain.ListingCache
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time

	pendingMu sync.Mutex
	pending   map[int64]struct{}
}

func NewFailoverListingCache(primary, fallback domain.ListingCache, logger *zerolog.Logger) *FailoverListingCache {
	return &FailoverListingCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		pending:  make(map[int64]struct{}),
	}
}

func (c *FailoverListingCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("Primary listing cache failed, falling back to memory")
	c.isDown.Store(true)
	c.mu.Lock()
	c.lastCheck = time.Now()
	c.mu.Unlock()
}

// usePrimary reports whether the primary should be tried for this call.
func (c *FailoverListingCache) usePrimary() bool {
	if !c.isDown.Load() {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastCheck) > recoveryInterval {
		c.lastCheck = time.Now()
		return true
	}
	return false
}

func (c *FailoverListingCache) recovered() {
	if c.isDown.CompareAndSwap(true, false) {
		c.logger.Info().Msg("Primary listing cache recovered")
	}
}

// primaryReady is usePrimary plus replay of missed invalidations. A failed
// replay keeps the primary down.
func (c *FailoverListingCache) primaryReady(ctx context.Context) bool {
	if !c.usePrimary() {
		return false
	}
	if err := c.flushPending(ctx); err != nil {
		c.markDown(err)
		return false
	}
	return true
}

func (c *FailoverListingCache) addPending(id int64) {
	c.pendingMu.Lock()
	c.pending[id] = struct{}{}
	c.pendingMu.Unlock()
}

func (c *FailoverListingCache) flushPending(ctx context.Context) error {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id := range c.pending {
		if err := c.primary.Invalidate(ctx, id); err != nil {
			return err
		}
		delete(c.pending, id)
	}
	return nil
}

func (c *FailoverListingCache) Get(ctx context.Context, id int64) (*models.Listing, error) {
	if c.primaryReady(ctx) {
		listing, err := c.primary.Get(ctx, id)
		if err == nil {
			c.recovered()
			return listing, nil
		}
		c.markDown(err)
	}
	return c.fallback.Get(ctx, id)
}

func (c *FailoverListingCache) Set(ctx context.Context, listing *models.Listing) error {
	if c.primaryReady(ctx) {
		err := c.primary.Set(ctx, listing)
		if err == nil {
			c.recovered()
			return nil
		}
		c.markDown(err)
	}
	return c.fallback.Set(ctx, listing)
}

// Invalidate clears both caches whatever the primary state. A delete the
// primary rejects is queued and replayed before the primary is read again.
func (c *FailoverListingCache) Invalidate(ctx context.Context, id int64) error {
	_ = c.fallback.Invalidate(ctx, id)
	if err := c.primary.Invalidate(ctx, id); err != nil {
		c.addPending(id)
		if !c.isDown.Load() {
			c.markDown(err)
		}
	}
	return nil
}
