package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookinfo-reviews/internal/models"
)

const keyPrefix = "bookinfo:reviews:ratings:"

// RatingsCache keeps recently fetched ratings in Redis. A cache built with a
// nil client is disabled: Get always misses and Set does nothing.
type RatingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedRatings struct {
	Reviewer1 int `json:"r1"`
	Reviewer2 int `json:"r2"`
}

// NewRatingsCache wraps an existing Redis client.
func NewRatingsCache(client *redis.Client, ttl time.Duration) *RatingsCache {
	return &RatingsCache{client: client, ttl: ttl}
}

// Connect parses redisURL and pings the server. An empty URL, a zero ttl or
// an unreachable server yields a disabled cache together with the reason,
// so the service keeps running without caching.
func Connect(ctx context.Context, redisURL string, ttl time.Duration) (*RatingsCache, error) {
	if redisURL == "" || ttl == 0 {
		return &RatingsCache{}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return &RatingsCache{}, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return &RatingsCache{}, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRatingsCache(client, ttl), nil
}

// Enabled reports whether the cache is backed by Redis.
func (c *RatingsCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *RatingsCache) key(productID string) string {
	return keyPrefix + productID
}

// Get returns the cached ratings of productID. The bool is false on a miss.
func (c *RatingsCache) Get(ctx context.Context, productID string) (models.RatingResult, bool, error) {
	if !c.Enabled() {
		return models.RatingResult{}, false, nil
	}

	data, err := c.client.Get(ctx, c.key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RatingResult{}, false, nil
	}
	if err != nil {
		return models.RatingResult{}, false, fmt.Errorf("failed to read cached ratings: %w", err)
	}

	var cached cachedRatings
	if err := json.Unmarshal(data, &cached); err != nil {
		return models.RatingResult{}, false, fmt.Errorf("failed to decode cached ratings: %w", err)
	}

	return models.PresentRatings(cached.Reviewer1, cached.Reviewer2), true, nil
}

// Set stores a present result. Absent results are never cached.
func (c *RatingsCache) Set(ctx context.Context, productID string, result models.RatingResult) error {
	if !c.Enabled() {
		return nil
	}

	r1, r2, ok := result.Stars()
	if !ok {
		return nil
	}

	data, err := json.Marshal(cachedRatings{Reviewer1: r1, Reviewer2: r2})
	if err != nil {
		return fmt.Errorf("failed to encode ratings: %w", err)
	}

	if err := c.client.Set(ctx, c.key(productID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache ratings: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RatingsCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
