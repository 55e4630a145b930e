package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTTLCacheExpires(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTTLCache[string, int](clk.Now)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clk.advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	_, ok = c.Get("b")
	assert.True(t, ok, "entries without ttl do not expire")

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func statsCaches(t *testing.T) map[string]StatsCache {
	return map[string]StatsCache{
		"memory": NewStatsCache(nil),
		"redis":  NewStatsCache(newRedisClient(t)),
	}
}

func TestStatsCacheInvalidate(t *testing.T) {
	for name, c := range statsCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, gen, ok, err := c.Get(ctx, "all")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, gen, "all", []byte(`{"count":1}`), time.Minute))
			value, _, ok, err := c.Get(ctx, "all")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"count":1}`, string(value))

			require.NoError(t, c.Invalidate(ctx))
			_, _, ok, err = c.Get(ctx, "all")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStatsCacheDropsSnapshotsFromBeforeInvalidate(t *testing.T) {
	for name, c := range statsCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, readGen, ok, err := c.Get(ctx, "all")
			require.NoError(t, err)
			require.False(t, ok)

			// A write commits and invalidates while the snapshot is being computed.
			require.NoError(t, c.Invalidate(ctx))
			require.NoError(t, c.Set(ctx, readGen, "all", []byte(`{"count":0}`), time.Minute))

			_, gen, ok, err := c.Get(ctx, "all")
			require.NoError(t, err)
			assert.False(t, ok, "snapshot computed before the write must not be served")
			assert.NotEqual(t, readGen, gen)

			require.NoError(t, c.Set(ctx, gen, "all", []byte(`{"count":1}`), time.Minute))
			value, _, ok, err := c.Get(ctx, "all")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"count":1}`, string(value))
		})
	}
}

func TestRedisStatsCacheReportsConnectionErrors(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisStatsCache(client)
	srv.Close()

	_, _, ok, err := c.Get(context.Background(), "all")
	assert.Error(t, err)
	assert.False(t, ok)
}
