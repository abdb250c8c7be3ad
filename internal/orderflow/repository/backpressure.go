package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Backpressure tracks per-queue depth counters used to throttle producers.
// Throttling is advisory: producers check ShouldThrottle before a wave and
// reject the wave themselves, the queue never refuses a push.
type Backpressure interface {
	Increment(ctx context.Context, queueName string, n int64) error
	Decrement(ctx context.Context, queueName string, n int64) error
	Depth(ctx context.Context, queueName string) (int64, error)
	ShouldThrottle(ctx context.Context, queueName string, maxDepth int64) (bool, error)
	Reset(ctx context.Context, queueName string) error
}

// RedisBackpressure keeps every counter in Redis so that the check is safe
// under multiple independent producer and worker processes.
type RedisBackpressure struct {
	db        redis.UniversalClient
	namespace string
}

func NewRedisBackpressure(db redis.UniversalClient, namespace string) *RedisBackpressure {
	return &RedisBackpressure{db: db, namespace: namespace}
}

func (b *RedisBackpressure) Increment(ctx context.Context, queueName string, n int64) error {
	return b.db.IncrBy(ctx, b.counterKey(queueName), n).Err()
}

func (b *RedisBackpressure) Decrement(ctx context.Context, queueName string, n int64) error {
	return b.db.DecrBy(ctx, b.counterKey(queueName), n).Err()
}

func (b *RedisBackpressure) Depth(ctx context.Context, queueName string) (int64, error) {
	depth, err := b.db.Get(ctx, b.counterKey(queueName)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return depth, err
}

func (b *RedisBackpressure) ShouldThrottle(ctx context.Context, queueName string, maxDepth int64) (bool, error) {
	depth, err := b.Depth(ctx, queueName)
	if err != nil {
		return false, err
	}
	return depth >= maxDepth, nil
}

func (b *RedisBackpressure) Reset(ctx context.Context, queueName string) error {
	return b.db.Del(ctx, b.counterKey(queueName)).Err()
}

func (b *RedisBackpressure) counterKey(queueName string) string {
	return b.namespace + ":" + queueName
}
