package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "insights:view:"

// Backend stores encoded views with a TTL.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisBackend keeps views in redis.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend returns redis-backed store.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get returns cached bytes. A missing key is not an error.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set caches bytes for ttl.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// ViewCache serves views for a bounded freshness window. A cache without a
// backend passes every read through to the loader.
type ViewCache struct {
	backend Backend
	ttl     time.Duration
	logger  *zap.Logger
}

// New builds a cache. backend may be nil.
func New(backend Backend, ttl time.Duration, logger *zap.Logger) *ViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ViewCache{backend: backend, ttl: ttl, logger: logger}
}

// TTL returns the freshness window.
func (c *ViewCache) TTL() time.Duration {
	return c.ttl
}

// Enabled reports whether a backend is configured.
func (c *ViewCache) Enabled() bool {
	return c != nil && c.backend != nil
}

// Load returns the cached view under key or calls load and caches its result.
// Cache failures are logged and fall back to load; load errors are never cached.
func Load[T any](ctx context.Context, c *ViewCache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		return load(ctx)
	}

	fullKey := keyPrefix + key
	data, ok, err := c.backend.Get(ctx, fullKey)
	if err != nil {
		c.logger.Warn("view cache read failed", zap.String("key", fullKey), zap.Error(err))
	}
	if ok {
		var cached T
		err := json.Unmarshal(data, &cached)
		if err == nil {
			return cached, nil
		}
		c.logger.Warn("view cache entry undecodable", zap.String("key", fullKey), zap.Error(err))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache encode failed", zap.String("key", fullKey), zap.Error(err))
		return value, nil
	}
	if err := c.backend.Set(ctx, fullKey, encoded, c.ttl); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", fullKey), zap.Error(err))
	}
	return value, nil
}

// Key joins view name and parameters into a cache key.
func Key(view string, parts ...any) string {
	key := view
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}
