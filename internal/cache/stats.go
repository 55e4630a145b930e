package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	statsGenerationKey = "storefront:stats:generation"
	statsKeyFormat     = "storefront:stats:%d:%s"
)

// StatsCache holds serialized statistics snapshots keyed by normalized range.
//
// Get reports the generation it read under. Callers hand that generation back
// to Set, so a snapshot computed before an Invalidate is never served after it.
type StatsCache interface {
	Get(ctx context.Context, key string) (value []byte, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, key string, value []byte, ttl time.Duration) error
	// Invalidate drops every cached snapshot.
	Invalidate(ctx context.Context) error
}

// NewStatsCache picks redis when a client is available, memory otherwise.
func NewStatsCache(client *redis.Client) StatsCache {
	if client == nil {
		return NewMemoryStatsCache()
	}
	return NewRedisStatsCache(client)
}

type redisStatsCache struct {
	client *redis.Client
}

// NewRedisStatsCache namespaces keys by a generation counter so Invalidate is a single INCR.
func NewRedisStatsCache(client *redis.Client) StatsCache {
	return &redisStatsCache{client: client}
}

func (c *redisStatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, statsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *redisStatsCache) Get(ctx context.Context, key string) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	value, err := c.client.Get(ctx, fmt.Sprintf(statsKeyFormat, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	return value, gen, true, nil
}

// Set writes under gen. After an Invalidate that namespace is never read again
// and the entry just ages out.
func (c *redisStatsCache) Set(ctx context.Context, gen int64, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, fmt.Sprintf(statsKeyFormat, gen, key), value, ttl).Err()
}

func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, statsGenerationKey).Err()
}

type memoryStatsCache struct {
	mu    sync.Mutex
	epoch int64
	items Cache[string, []byte]
}

func NewMemoryStatsCache() StatsCache {
	return &memoryStatsCache{items: NewTTLCache[string, []byte]()}
}

func (c *memoryStatsCache) Get(_ context.Context, key string) ([]byte, int64, bool, error) {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	value, ok := c.items.Get(key)
	return value, epoch, ok, nil
}

func (c *memoryStatsCache) Set(_ context.Context, gen int64, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.epoch {
		return nil
	}
	c.items.Set(key, value, ttl)
	return nil
}

func (c *memoryStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.epoch++
	c.items.Clear()
	c.mu.Unlock()
	return nil
}
