package ingest

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
)

// BackpressureQueueName is the counter all producers and workers share.
const BackpressureQueueName = "ingestion"

// Ingester is the producer side of the pipeline: it deduplicates an incoming
// wave of records and enqueues the new ones in a single batch.
type Ingester struct {
	queue        repository.QueueRepository
	dedup        repository.DeduplicationWindow
	backpressure repository.Backpressure
	metrics      *metrics.Metrics
	maxDepth     int64
}

func NewIngester(
	queue repository.QueueRepository,
	dedup repository.DeduplicationWindow,
	backpressure repository.Backpressure,
	metrics *metrics.Metrics,
	maxDepth int64,
) *Ingester {
	return &Ingester{
		queue:        queue,
		dedup:        dedup,
		backpressure: backpressure,
		metrics:      metrics,
		maxDepth:     maxDepth,
	}
}

// Ingest deduplicates and enqueues a wave of records. When the queue depth is
// at or above the configured maximum the whole wave is rejected (Queued zero,
// Throttled set) and the caller is expected to retry later; backpressure is
// cooperative, not enforced by the queue.
func (i *Ingester) Ingest(ctx context.Context, records []*model.Record) (model.IngestResult, error) {
	result := model.IngestResult{Total: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	throttle, err := i.backpressure.ShouldThrottle(ctx, BackpressureQueueName, i.maxDepth)
	if err != nil {
		return result, err
	}
	if throttle {
		log.Warnf("Backpressure detected, rejecting wave of %d records", len(records))
		result.Throttled = true
		return result, nil
	}

	newRecords := make([]*model.Record, 0, len(records))
	for _, record := range records {
		isNew, err := i.dedup.MarkSeen(ctx, record.OrderID)
		if err != nil {
			return result, err
		}
		if isNew {
			result.New++
			newRecords = append(newRecords, record)
		} else {
			result.Duplicates++
		}
	}

	if len(newRecords) > 0 {
		if err := i.queue.PushBatch(ctx, newRecords); err != nil {
			return result, err
		}
		if err := i.backpressure.Increment(ctx, BackpressureQueueName, int64(len(newRecords))); err != nil {
			return result, err
		}
		result.Queued = len(newRecords)
	}

	i.metrics.RecordIngested(result.Queued)
	i.metrics.RecordDuplicates(result.Duplicates)
	return result, nil
}
