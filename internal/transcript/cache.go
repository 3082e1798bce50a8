package transcript

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// unavailabilityTTL is spec.md §4.9's "An unavailability cache (24 h)
// short-circuits repeated attempts per videoId."
const unavailabilityTTL = 24 * time.Hour

// RedisCache is the UnavailabilityCache backed by Redis, grounded on
// the teacher's infrastructure/cache.RedisCache (Get/Set over
// *redis.Client with a configured TTL) — narrowed to the single
// present/absent check this pipeline needs.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

func (r *RedisCache) IsUnavailable(ctx context.Context, videoID string) (bool, error) {
	_, err := r.client.Get(ctx, cacheKey(videoID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) MarkUnavailable(ctx context.Context, videoID string) error {
	return r.client.Set(ctx, cacheKey(videoID), "1", unavailabilityTTL).Err()
}

func cacheKey(videoID string) string {
	return "transcript:unavailable:" + videoID
}

// InMemoryCache is a process-local fallback for environments without
// Redis configured — spec.md §5 describes the cache as "process-local"
// in the first place, so Redis is an enhancement, not a requirement.
// Last-write-wins via a plain map, matching the Shared-resource policy.
type InMemoryCache struct {
	entries map[string]time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]time.Time)}
}

func (c *InMemoryCache) IsUnavailable(ctx context.Context, videoID string) (bool, error) {
	markedAt, ok := c.entries[videoID]
	if !ok {
		return false, nil
	}
	if time.Since(markedAt) > unavailabilityTTL {
		delete(c.entries, videoID)
		return false, nil
	}
	return true, nil
}

func (c *InMemoryCache) MarkUnavailable(ctx context.Context, videoID string) error {
	c.entries[videoID] = time.Now()
	return nil
}
