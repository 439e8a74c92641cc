package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"provider/internal/config"
	"provider/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisListingCache stores listings as JSON under listing:<id>.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from the redis section of the config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisListingCache(client *redis.Client, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{
		client: client,
		ttl:    ttl,
	}
}

func listingKey(id int64) string {
	return fmt.Sprintf("listing:%d", id)
}

// Get returns nil, nil on a miss.
func (c *RedisListingCache) Get(ctx context.Context, id int64) (*models.Listing, error) {
	if c.client == nil {
		return nil, errors.New("redis client is nil")
	}
	val, err := c.client.Get(ctx, listingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing from redis: %w", err)
	}

	var listing models.Listing
	if err := json.Unmarshal(val, &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}
	return &listing, nil
}

func (c *RedisListingCache) Set(ctx context.Context, listing *models.Listing) error {
	if c.client == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}
	if err := c.client.Set(ctx, listingKey(listing.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set listing in redis: %w", err)
	}
	return nil
}

func (c *RedisListingCache) Invalidate(ctx context.Context, id int64) error {
	if c.client == nil {
		return errors.New("redis client is nil")
	}
	if err := c.client.Del(ctx, listingKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete listing from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
