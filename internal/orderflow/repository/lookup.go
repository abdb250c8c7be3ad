package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// LookupCache is a read-mostly snapshot of small reference tables, kept as a
// single Redis hash. Get must fail fast on a missing entry so the miss
// becomes a per-record validation error rather than a stall.
type LookupCache interface {
	Set(ctx context.Context, key string, value string) error
	SetBatch(ctx context.Context, entries map[string]string) error
	Get(ctx context.Context, key string) (string, bool, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Size(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type RedisLookupCache struct {
	db  redis.UniversalClient
	key string
}

func NewRedisLookupCache(db redis.UniversalClient, key string) *RedisLookupCache {
	return &RedisLookupCache{db: db, key: key}
}

func (c *RedisLookupCache) Set(ctx context.Context, key string, value string) error {
	return c.db.HSet(ctx, c.key, key, value).Err()
}

// SetBatch writes a whole reference table in one round trip. Preloading is a
// full refresh: repeated calls simply overwrite the previous snapshot.
func (c *RedisLookupCache) SetBatch(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	untyped := make(map[string]interface{}, len(entries))
	for k, v := range entries {
		untyped[k] = v
	}
	return c.db.HSet(ctx, c.key, untyped).Err()
}

func (c *RedisLookupCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.db.HGet(ctx, c.key, key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisLookupCache) GetAll(ctx context.Context) (map[string]string, error) {
	return c.db.HGetAll(ctx, c.key).Result()
}

func (c *RedisLookupCache) Exists(ctx context.Context, key string) (bool, error) {
	return c.db.HExists(ctx, c.key, key).Result()
}

func (c *RedisLookupCache) Size(ctx context.Context) (int64, error) {
	return c.db.HLen(ctx, c.key).Result()
}

func (c *RedisLookupCache) Clear(ctx context.Context) error {
	return c.db.Del(ctx, c.key).Err()
}
