package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level cache (L1: memory, L2: Redis). Without a
// Redis layer it behaves as a plain memory cache.
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache Service
	memTTL     time.Duration
}

// LayeredOption configures NewLayeredCache.
type LayeredOption func(*layeredConfig)

type layeredConfig struct {
	memory []MemoryOption
	l1TTL  time.Duration
}

// WithLayeredMemory passes options through to the L1 cache.
func WithLayeredMemory(opts ...MemoryOption) LayeredOption {
	return func(c *layeredConfig) { c.memory = append(c.memory, opts...) }
}

// WithLayeredL1TTL bounds how long a value promoted from L2 stays in memory.
func WithLayeredL1TTL(ttl time.Duration) LayeredOption {
	return func(c *layeredConfig) { c.l1TTL = ttl }
}

// NewLayeredCache creates a layered cache. redisCache may be nil.
func NewLayeredCache(redisCache Service, opts ...LayeredOption) *LayeredCache {
	cfg := &layeredConfig{l1TTL: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		memCache:   NewMemoryCache(cfg.memory...),
		redisCache: redisCache,
		memTTL:     cfg.l1TTL,
	}
}

// Set writes through to L2 first so a failed L2 write leaves L1 untouched.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if lc.redisCache != nil {
		if err := lc.redisCache.Set(ctx, key, value, expiration); err != nil {
			return err
		}
	}
	return lc.memCache.Set(ctx, key, value, expiration)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.memCache.Get(ctx, key, dest); err == nil {
		return nil
	}
	if lc.redisCache == nil {
		return ErrCacheMiss
	}

	if err := lc.redisCache.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, dest, lc.memTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	if lc.redisCache == nil {
		return nil
	}
	return lc.redisCache.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := lc.memCache.Exists(ctx, key); ok {
		return true, nil
	}
	if lc.redisCache == nil {
		return false, nil
	}
	return lc.redisCache.Exists(ctx, key)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	if lc.redisCache == nil {
		return nil
	}
	return lc.redisCache.Close()
}
