package repository

import (
	"context"
	"sync"
	"time"

	"provider/internal/models"
)

type memoryEntry struct {
	listing   models.Listing
	expiresAt time.Time
}

// MemoryListingCache is the in-process fallback. A zero ttl never expires.
type MemoryListingCache struct {
	entries sync.Map
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	return &MemoryListingCache{ttl: ttl, now: time.Now}
}

func (c *MemoryListingCache) Get(_ context.Context, id int64) (*models.Listing, error) {
	val, ok := c.entries.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.entries.CompareAndDelete(id, val)
		return nil, nil
	}
	listing := entry.listing
	return &listing, nil
}

func (c *MemoryListingCache) Set(_ context.Context, listing *models.Listing) error {
	entry := &memoryEntry{listing: *listing}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.entries.Store(listing.ID, entry)
	return nil
}

func (c *MemoryListingCache) Invalidate(_ context.Context, id int64) error {
	c.entries.Delete(id)
	return nil
}
