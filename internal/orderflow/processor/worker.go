package processor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/orderflow/orderflow/internal/orderflow/ingest"
	"github.com/orderflow/orderflow/internal/orderflow/lookup"
	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
	"github.com/orderflow/orderflow/internal/orderflow/stagingdb"
)

// Worker pulls bounded batches from the ingestion queue, enriches them via
// the lookup cache and bulk writes the result into staging. Workers need no
// coordination between themselves: the queue's blocking pop gives each record
// to exactly one worker.
type Worker struct {
	id           int
	queue        repository.QueueRepository
	backpressure repository.Backpressure
	enricher     *Enricher
	store        stagingdb.StagingStore
	events       repository.EventPublisher
	metrics      *metrics.Metrics

	batchSize        int
	popTimeout       time.Duration
	idlePollInterval time.Duration
}

func NewWorker(
	id int,
	queue repository.QueueRepository,
	backpressure repository.Backpressure,
	enricher *Enricher,
	store stagingdb.StagingStore,
	events repository.EventPublisher,
	metrics *metrics.Metrics,
	batchSize int,
	popTimeout time.Duration,
	idlePollInterval time.Duration,
) *Worker {
	return &Worker{
		id:               id,
		queue:            queue,
		backpressure:     backpressure,
		enricher:         enricher,
		store:            store,
		events:           events,
		metrics:          metrics,
		batchSize:        batchSize,
		popTimeout:       popTimeout,
		idlePollInterval: idlePollInterval,
	}
}

// Run executes the batch loop until ctx is cancelled. The stop signal is
// checked between iterations only; an in-flight batch always finishes
// staging before the worker exits.
func (w *Worker) Run(ctx context.Context, maxIterations int) error {
	log.Infof("Worker %d started", w.id)
	defer log.Infof("Worker %d stopped", w.id)

	for iterations := 0; maxIterations <= 0 || iterations < maxIterations; iterations++ {
		if ctx.Err() != nil {
			return nil
		}

		result, err := w.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if result.Drained > 0 {
			log.WithFields(log.Fields{
				"worker":           w.id,
				"drained":          result.Drained,
				"staged":           result.Staged,
				"enrichmentErrors": result.EnrichmentErrors,
				"errors":           result.Errors,
			}).Info("Processed batch")
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.idlePollInterval):
		}
	}
	return nil
}

// RunUntilEmpty processes batches back to back until a drain comes back
// empty, then returns the aggregate of everything processed. Used by the
// benchmark, which wants the queue fully consumed rather than watched.
func (w *Worker) RunUntilEmpty(ctx context.Context) (model.BatchResult, error) {
	total := model.BatchResult{}
	for {
		if ctx.Err() != nil {
			return total, nil
		}
		result, err := w.ProcessBatch(ctx)
		if err != nil {
			return total, err
		}
		total.Add(result)
		if result.Drained == 0 {
			return total, nil
		}
	}
}

// ProcessBatch runs one Draining -> Enriching -> Staging pass and reports
// what happened to every drained record: on success
// Staged + EnrichmentErrors == Drained.
func (w *Worker) ProcessBatch(ctx context.Context) (model.BatchResult, error) {
	result := model.BatchResult{}

	batch, err := w.drain(ctx)
	if err != nil {
		return result, err
	}
	result.Drained = len(batch)
	if len(batch) == 0 {
		return result, nil
	}

	// The records have left the queue, so the backpressure counter drops
	// regardless of what enrichment and staging do with them.
	if err := w.backpressure.Decrement(ctx, ingest.BackpressureQueueName, int64(len(batch))); err != nil {
		return result, err
	}

	enriched := make([]*model.EnrichedRecord, 0, len(batch))
	for _, record := range batch {
		row, err := w.enricher.Enrich(ctx, record)
		if err != nil {
			if errors.Is(err, lookup.ErrNotFound) {
				result.EnrichmentErrors++
				log.WithField("worker", w.id).Debugf("dropping record %s: %v", record.OrderID, err)
				continue
			}
			return result, err
		}
		enriched = append(enriched, row)
	}
	result.Enriched = len(enriched)
	w.metrics.RecordEnrichmentError(result.EnrichmentErrors)

	if len(enriched) == 0 {
		return result, nil
	}

	staged, err := w.store.BulkInsert(ctx, enriched)
	if err != nil {
		// The source records have already left the queue, so a staging
		// failure is terminal for the whole batch; re-queueing here would
		// amplify duplicates without bound.
		result.Errors = len(enriched)
		w.metrics.RecordBatchError(result.Errors)
		log.WithError(err).Errorf("Worker %d failed to stage batch of %d records", w.id, len(enriched))
		return result, nil
	}
	result.Staged = int(staged)
	w.metrics.RecordStaged(result.Staged)

	event := model.PipelineEvent{
		Name:      model.EventBatchStaged,
		Count:     staged,
		Timestamp: time.Now(),
	}
	if err := w.events.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish batch_staged event")
	}
	return result, nil
}

// drain pops up to batchSize records, stopping early at the first pop that
// times out on an empty queue.
func (w *Worker) drain(ctx context.Context) ([]*model.Record, error) {
	batch := make([]*model.Record, 0, w.batchSize)
	for len(batch) < w.batchSize {
		record, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			return nil, err
		}
		if record == nil {
			break
		}
		batch = append(batch, record)
	}
	return batch, nil
}
