package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache implements two-level cache (L1: memory, L2: Redis).
type LayeredCache struct {
	mem    *MemoryCache
	remote Service
	l1TTL  time.Duration
}

var _ Service = (*LayeredCache)(nil)

// NewLayeredCache puts an in-process cache in front of remote.
func NewLayeredCache(remote Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		mem:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		remote: remote,
		l1TTL:  cfg.MemoryTTL,
	}
}

// Set writes through: remote first, then memory.
func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value, lc.ttl(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	if err := lc.mem.Get(ctx, key, &raw); err == nil {
		return decode(raw, dest)
	}
	if err := lc.remote.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, raw, lc.l1TTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, _ := lc.mem.Exists(ctx, keys...); ok {
		return true, nil
	}
	return lc.remote.Exists(ctx, keys...)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	return errors.Join(lc.mem.Close(), lc.remote.Close())
}

func (lc *LayeredCache) ttl(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.l1TTL {
		return expiration
	}
	return lc.l1TTL
}
