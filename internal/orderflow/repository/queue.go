package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/orderflow/orderflow/internal/orderflow/model"
)

const lifetimeCounterSuffix = ":counter"

// QueueRepository is a thin adapter over a Redis list used as the ingestion
// queue. Every push also bumps a monotonically increasing lifetime counter
// used for throughput accounting; the counter is independent of current depth.
type QueueRepository interface {
	Push(ctx context.Context, record *model.Record) error
	PushBatch(ctx context.Context, records []*model.Record) error
	Pop(ctx context.Context, timeout time.Duration) (*model.Record, error)
	Size(ctx context.Context) (int64, error)
	Lifetime(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type RedisQueueRepository struct {
	db        redis.UniversalClient
	queueName string
}

func NewRedisQueueRepository(db redis.UniversalClient, queueName string) *RedisQueueRepository {
	return &RedisQueueRepository{db: db, queueName: queueName}
}

func (repo *RedisQueueRepository) Push(ctx context.Context, record *model.Record) error {
	return repo.PushBatch(ctx, []*model.Record{record})
}

// PushBatch enqueues all records and updates the lifetime counter in a single
// transactional pipeline, so the counter never disagrees with what was pushed.
// Relative order within the batch is preserved.
func (repo *RedisQueueRepository) PushBatch(ctx context.Context, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}

	serialized := make([]interface{}, len(records))
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return errors.WithMessagef(err, "error serializing record %s", record.OrderID)
		}
		serialized[i] = data
	}

	pipe := repo.db.TxPipeline()
	pipe.LPush(ctx, repo.queueName, serialized...)
	pipe.IncrBy(ctx, repo.queueName+lifetimeCounterSuffix, int64(len(records)))
	_, err := pipe.Exec(ctx)
	return err
}

// Pop blocks for up to timeout and returns (nil, nil) when the queue stayed
// empty. This is the only blocking call in the worker loop.
func (repo *RedisQueueRepository) Pop(ctx context.Context, timeout time.Duration) (*model.Record, error) {
	result, err := repo.db.BRPop(ctx, timeout, repo.queueName).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, errors.WithMessage(err, "error popping from ingestion queue")
	}

	// BRPop returns [key, value]
	record := &model.Record{}
	if err := json.Unmarshal([]byte(result[1]), record); err != nil {
		return nil, errors.WithMessage(err, "error deserializing queued record")
	}
	return record, nil
}

func (repo *RedisQueueRepository) Size(ctx context.Context) (int64, error) {
	return repo.db.LLen(ctx, repo.queueName).Result()
}

func (repo *RedisQueueRepository) Lifetime(ctx context.Context) (int64, error) {
	value, err := repo.db.Get(ctx, repo.queueName+lifetimeCounterSuffix).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return value, err
}

func (repo *RedisQueueRepository) Clear(ctx context.Context) error {
	return repo.db.Del(ctx, repo.queueName, repo.queueName+lifetimeCounterSuffix).Err()
}
