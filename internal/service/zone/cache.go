package zone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"velocirrus/internal/model"
	"velocirrus/internal/redis"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheEntry is a zone set remembered for one cache window
type CacheEntry struct {
	Zones  []model.Zone     `msgpack:"zones"`
	Source model.DataSource `msgpack:"source"` // live or simulated
}

// Cache stores zone sets by key. Implementations must treat backend errors as misses.
type Cache interface {
	Get(ctx context.Context, key string) (CacheEntry, bool)
	Set(ctx context.Context, key string, e CacheEntry)
}

// CacheKey buckets the request time into windows so refreshes close together
// share a zone set
func CacheKey(hasCredential bool, at time.Time, window time.Duration) string {
	return fmt.Sprintf("zones:%t:%d", hasCredential, at.UTC().Truncate(window).Unix())
}

// MemoryCache is an in-process LRU whose entries expire after the cache window
type MemoryCache struct {
	lru *expirable.LRU[string, CacheEntry]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, CacheEntry](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (CacheEntry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return CacheEntry{}, false
	}
	e.Zones = append([]model.Zone(nil), e.Zones...)
	return e, true
}

func (c *MemoryCache) Set(_ context.Context, key string, e CacheEntry) {
	e.Zones = append([]model.Zone(nil), e.Zones...)
	c.lru.Add(key, e)
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache shares zone sets between dashboard instances
type RedisCache struct {
	store *redis.Store
	ttl   time.Duration
	log   *slog.Logger
}

func NewRedisCache(store *redis.Store, ttl time.Duration, log *slog.Logger) *RedisCache {
	return &RedisCache{store: store, ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (CacheEntry, bool) {
	var e CacheEntry
	ok, err := c.store.Get(ctx, key, &e)
	if err != nil {
		c.log.Warn("zone cache read failed", slog.String("key", key), slog.Any("error", err))
		return CacheEntry{}, false
	}
	return e, ok
}

func (c *RedisCache) Set(ctx context.Context, key string, e CacheEntry) {
	if err := c.store.Set(ctx, key, e, c.ttl); err != nil {
		c.log.Warn("zone cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// TieredCache checks the in-process cache before the shared one
type TieredCache struct {
	local  Cache
	shared Cache
}

func NewTieredCache(local, shared Cache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

func (c *TieredCache) Get(ctx context.Context, key string) (CacheEntry, bool) {
	if e, ok := c.local.Get(ctx, key); ok {
		return e, true
	}
	e, ok := c.shared.Get(ctx, key)
	if ok {
		c.local.Set(ctx, key, e)
	}
	return e, ok
}

func (c *TieredCache) Set(ctx context.Context, key string, e CacheEntry) {
	c.local.Set(ctx, key, e)
	c.shared.Set(ctx, key, e)
}
