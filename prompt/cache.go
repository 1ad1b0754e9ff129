package prompt

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// Entry is one cached synthesized prompt.
type Entry struct {
	AdvertiserID  string    `json:"advertiserId"`
	Prompt        string    `json:"prompt"`
	MissingFields bool      `json:"missingFields"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Cache stores synthesized prompts per advertiser with a TTL measured
// from insertion. An expired entry is indistinguishable from an absent
// one. Set replaces atomically; concurrent writers for the same key are
// last-writer-wins.
type Cache interface {
	Get(ctx context.Context, advertiserID string) (Entry, bool)
	Set(ctx context.Context, advertiserID string, entry Entry)
	Invalidate(ctx context.Context, advertiserID string)
}

// MemoryCache is the in-process Cache backend.
type MemoryCache struct {
	cache *ttlcache.Cache[string, Entry]
}

// NewMemoryCache creates a memory cache whose entries expire ttl after
// insertion. Reads do not extend an entry's lifetime.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, Entry](ttl),
		ttlcache.WithDisableTouchOnHit[string, Entry](),
	)
	go cache.Start()
	return &MemoryCache{cache: cache}
}

func (c *MemoryCache) Get(_ context.Context, advertiserID string) (Entry, bool) {
	item := c.cache.Get(advertiserID)
	if item == nil {
		return Entry{}, false
	}
	return item.Value(), true
}

func (c *MemoryCache) Set(_ context.Context, advertiserID string, entry Entry) {
	c.cache.Set(advertiserID, entry, ttlcache.DefaultTTL)
}

func (c *MemoryCache) Invalidate(_ context.Context, advertiserID string) {
	c.cache.Delete(advertiserID)
}

// Close stops the expiration goroutine.
func (c *MemoryCache) Close() {
	c.cache.Stop()
}

// RedisCache is a Redis-backed Cache backend so multiple gateway
// instances can share synthesized prompts. Entries are JSON values under
// "prompt:<advertiserID>" with the TTL applied as key expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *log.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: logger}
}

func redisKey(advertiserID string) string {
	return "prompt:" + advertiserID
}

func (c *RedisCache) Get(ctx context.Context, advertiserID string) (Entry, bool) {
	raw, err := c.client.Get(ctx, redisKey(advertiserID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis cache read failed", "advertiser_id", advertiserID, "error", err)
		}
		return Entry{}, false
	}

	var entry Entry
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("redis cache entry corrupt, dropping", "advertiser_id", advertiserID, "error", err)
		c.client.Del(ctx, redisKey(advertiserID))
		return Entry{}, false
	}
	return entry, true
}

func (c *RedisCache) Set(ctx context.Context, advertiserID string, entry Entry) {
	raw, err := sonic.Marshal(entry)
	if err != nil {
		c.log.Warn("failed to encode cache entry", "advertiser_id", advertiserID, "error", err)
		return
	}
	if err := c.client.Set(ctx, redisKey(advertiserID), raw, c.ttl).Err(); err != nil {
		// A failed cache write is not fatal: the next resolve re-synthesizes.
		c.log.Warn("redis cache write failed", "advertiser_id", advertiserID, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, advertiserID string) {
	if err := c.client.Del(ctx, redisKey(advertiserID)).Err(); err != nil {
		c.log.Warn("redis cache delete failed", "advertiser_id", advertiserID, "error", err)
	}
}
