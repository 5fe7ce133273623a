package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// pausedGroupCache is a read-through cache in front of the Paused-Group
// Registry (SPEC_FULL.md §4.3 NEW). It is a latency optimization only:
// correctness never depends on it being warm, or even present — a nil
// *pausedGroupCache (no Redis configured) makes every check go straight to
// the document database.
type pausedGroupCache struct {
	client  redis.UniversalClient
	channel string
}

func newPausedGroupCache(client redis.UniversalClient) *pausedGroupCache {
	if client == nil {
		return nil
	}
	return &pausedGroupCache{client: client, channel: "jobstore:paused"}
}

// Get reports a cached answer for whether id is a paused-group marker.
// found is false on a cache miss, prompting the caller to fall back to the
// registry and then populate the cache via Set.
func (c *pausedGroupCache) Get(ctx context.Context, id string) (paused bool, found bool) {
	if c == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, id).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return false, false
		}
		return false, false
	}
	return val == "1", true
}

// Set caches whether id is currently a paused-group marker.
func (c *pausedGroupCache) Set(ctx context.Context, id string, paused bool) {
	if c == nil {
		return
	}
	val := "0"
	if paused {
		val = "1"
	}
	_ = c.client.Set(ctx, id, val, 0).Err()
}

// Invalidate deletes the entry for id from the shared Redis cache and
// publishes an invalidation for id on the cache channel.
func (c *pausedGroupCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, id).Err()
	_ = c.client.Publish(ctx, c.channel, id).Err()
}

// Subscribe listens for invalidations published on the cache channel and
// deletes the matching key from the shared Redis cache; instances keep no
// local copy of their own. The returned function stops the
// subscription; callers typically run this in a background goroutine for
// the lifetime of the store.
func (c *pausedGroupCache) Subscribe(ctx context.Context) (stop func(), err error) {
	if c == nil {
		return func() {}, nil
	}
	sub := c.client.Subscribe(ctx, c.channel)
	ch := sub.Channel()
	go func() {
		for msg := range ch {
			_ = c.client.Del(ctx, msg.Payload).Err()
		}
	}()
	return func() { _ = sub.Close() }, nil
}

func redisAddrValid(addr string) error {
	if addr == "" {
		return fmt.Errorf("redis address is empty")
	}
	return nil
}
