// Package cache provides the key/value cache backing the authentication sessions:
// redis when configured, an in-process map otherwise.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/fyp/core"
)

type Cache interface {
	// Get returns nil when the key is missing.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a redis cache when `redis.addr` is configured, an in-memory cache otherwise.
func New(conf *core.Config, logger core.Logger) Cache {
	if conf.Redis.Addr == "" {
		return NewMemory()
	}
	return NewRedis(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB, logger)
}

// Redis wraps redis.Client. Errors are logged and returned: a revocation list must not fail open.
type Redis struct {
	client *redis.Client
	logger core.Logger
}

var _ Cache = (*Redis)(nil)

func NewRedis(addr, password string, db int, logger core.Logger) *Redis {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Redis{client: redis.NewClient(opts), logger: logger}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("cache get "+key, err)
		return nil, errors.Wrap(err, "redis get")
	}
	return res, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set "+key, err)
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache delete "+key, err)
		return errors.Wrap(err, "redis delete")
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}

type memItem struct {
	value     []byte
	expiresAt time.Time // zero: never
}

// Memory is a process-local Cache, used when no redis server is configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

func (c *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return nil, nil
	}
	if !it.expiresAt.IsZero() && !c.now().Before(it.expiresAt) {
		delete(c.items, key)
		return nil, nil
	}
	return append([]byte(nil), it.value...), nil
}

func (c *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := memItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = it
	c.evictExpired()
	return nil
}

func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *Memory) Close() error { return nil }

// evictExpired drops the expired items; c.mu must be held.
func (c *Memory) evictExpired() {
	now := c.now()
	for k, it := range c.items {
		if !it.expiresAt.IsZero() && !now.Before(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
