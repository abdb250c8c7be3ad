package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeduplicationWindow tracks record identifiers seen within a time horizon.
// MarkSeen reports whether the identifier is new; duplicates are a normal
// discard, not an error.
type DeduplicationWindow interface {
	MarkSeen(ctx context.Context, recordId string) (bool, error)
	MarkSeenBatch(ctx context.Context, recordIds []string) (int, error)
	CountSeen(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// RedisDeduplicationWindow stores identifiers in a single hash with one TTL.
// The horizon is fixed at the first insertion after the hash was empty rather
// than sliding per entry; a strict sliding window would need a sorted set
// keyed by timestamp with periodic eviction.
type RedisDeduplicationWindow struct {
	db     redis.UniversalClient
	key    string
	window time.Duration
}

func NewRedisDeduplicationWindow(db redis.UniversalClient, key string, window time.Duration) *RedisDeduplicationWindow {
	return &RedisDeduplicationWindow{db: db, key: key, window: window}
}

func (w *RedisDeduplicationWindow) MarkSeen(ctx context.Context, recordId string) (bool, error) {
	isNew, err := w.db.HSetNX(ctx, w.key, recordId, time.Now().Unix()).Result()
	if err != nil {
		return false, err
	}

	// The horizon starts when the hash comes into existence. Checking for a
	// missing TTL rather than HLEN == 1 also repairs a hash left behind by a
	// crash between HSetNX and Expire.
	if isNew {
		ttl, err := w.db.TTL(ctx, w.key).Result()
		if err != nil {
			return isNew, err
		}
		if ttl < 0 {
			if err := w.db.Expire(ctx, w.key, w.window).Err(); err != nil {
				return isNew, err
			}
		}
	}
	return isNew, nil
}

// MarkSeenBatch marks all identifiers in one pipeline round trip and returns
// how many of them were newly seen.
func (w *RedisDeduplicationWindow) MarkSeenBatch(ctx context.Context, recordIds []string) (int, error) {
	if len(recordIds) == 0 {
		return 0, nil
	}

	now := time.Now().Unix()
	pipe := w.db.Pipeline()
	cmds := make([]*redis.BoolCmd, len(recordIds))
	for i, recordId := range recordIds {
		cmds[i] = pipe.HSetNX(ctx, w.key, recordId, now)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	newlySeen := 0
	for _, cmd := range cmds {
		if cmd.Val() {
			newlySeen++
		}
	}

	// The horizon starts when the hash comes into existence; later batches
	// must not push it out.
	if newlySeen > 0 {
		ttl, err := w.db.TTL(ctx, w.key).Result()
		if err != nil {
			return newlySeen, err
		}
		if ttl < 0 {
			if err := w.db.Expire(ctx, w.key, w.window).Err(); err != nil {
				return newlySeen, err
			}
		}
	}
	return newlySeen, nil
}

func (w *RedisDeduplicationWindow) CountSeen(ctx context.Context) (int64, error) {
	return w.db.HLen(ctx, w.key).Result()
}

func (w *RedisDeduplicationWindow) Clear(ctx context.Context) error {
	return w.db.Del(ctx, w.key).Err()
}
