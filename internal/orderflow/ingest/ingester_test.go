package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
)

func TestIngestSplitsNewFromDuplicates(t *testing.T) {
	withIngester(t, 100000, func(ingester *Ingester, queue repository.QueueRepository, _ repository.Backpressure) {
		ctx := context.Background()
		generator := NewGenerator(0.05, 42)
		records := generator.GenerateBatch(1000, time.Now(), time.Hour)

		result, err := ingester.Ingest(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 1000, result.Total)
		assert.Equal(t, 1000, result.New+result.Duplicates)
		assert.Equal(t, result.New, result.Queued)
		assert.False(t, result.Throttled)
		assert.Greater(t, result.Duplicates, 0)
		assert.Less(t, result.Duplicates, 200)

		size, err := queue.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(result.Queued), size)
	})
}

func TestReingestedWaveIsAllDuplicates(t *testing.T) {
	withIngester(t, 100000, func(ingester *Ingester, queue repository.QueueRepository, _ repository.Backpressure) {
		ctx := context.Background()
		generator := NewGenerator(0, 7)
		records := generator.GenerateBatch(200, time.Now(), time.Hour)

		first, err := ingester.Ingest(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 200, first.New)

		second, err := ingester.Ingest(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 0, second.New)
		assert.Equal(t, 200, second.Duplicates)
		assert.Equal(t, 0, second.Queued)

		size, err := queue.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(200), size)
	})
}

func TestIngestRejectsWaveUnderBackpressure(t *testing.T) {
	withIngester(t, 50, func(ingester *Ingester, queue repository.QueueRepository, backpressure repository.Backpressure) {
		ctx := context.Background()
		require.NoError(t, backpressure.Increment(ctx, BackpressureQueueName, 50))

		generator := NewGenerator(0, 7)
		result, err := ingester.Ingest(ctx, generator.GenerateBatch(10, time.Now(), time.Minute))
		require.NoError(t, err)
		assert.True(t, result.Throttled)
		assert.Equal(t, 0, result.Queued)
		assert.Equal(t, 0, result.New)

		// nothing reached the queue and the dedup window was not consulted
		size, err := queue.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), size)
	})
}

func TestIngestMaintainsBackpressureCounter(t *testing.T) {
	withIngester(t, 100000, func(ingester *Ingester, _ repository.QueueRepository, backpressure repository.Backpressure) {
		ctx := context.Background()
		generator := NewGenerator(0, 7)

		result, err := ingester.Ingest(ctx, generator.GenerateBatch(300, time.Now(), time.Hour))
		require.NoError(t, err)

		depth, err := backpressure.Depth(ctx, BackpressureQueueName)
		require.NoError(t, err)
		assert.Equal(t, int64(result.Queued), depth)
	})
}

func TestIngestEmptyWave(t *testing.T) {
	withIngester(t, 100000, func(ingester *Ingester, _ repository.QueueRepository, _ repository.Backpressure) {
		result, err := ingester.Ingest(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, model.IngestResult{}, result)
	})
}

func withIngester(t *testing.T, maxDepth int64, action func(ingester *Ingester, queue repository.QueueRepository, backpressure repository.Backpressure)) {
	t.Helper()
	db := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: db.Addr()})
	defer redisClient.Close()

	queue := repository.NewRedisQueueRepository(redisClient, "orders:ingestion")
	dedup := repository.NewRedisDeduplicationWindow(redisClient, "orders:dedup", time.Hour)
	backpressure := repository.NewRedisBackpressure(redisClient, "backpressure")
	ingester := NewIngester(queue, dedup, backpressure, metrics.Get(), maxDepth)
	action(ingester, queue, backpressure)
}
