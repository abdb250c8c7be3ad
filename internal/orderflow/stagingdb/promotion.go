package stagingdb

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
)

// PromotionManager drives the operator triggered promotion step: move the
// staged rows, refresh the aggregate views and signal completion. It is never
// called from the worker loop, so promotion cannot block ingestion.
type PromotionManager struct {
	store   StagingStore
	events  repository.EventPublisher
	metrics *metrics.Metrics
}

func NewPromotionManager(store StagingStore, events repository.EventPublisher, metrics *metrics.Metrics) *PromotionManager {
	return &PromotionManager{store: store, events: events, metrics: metrics}
}

// Promote returns the number of rows moved to durable storage. A zero row
// promotion is a no-op: no view refresh and no event.
func (m *PromotionManager) Promote(ctx context.Context) (int64, error) {
	promoted, err := m.store.Promote(ctx)
	if err != nil {
		return 0, err
	}
	if promoted == 0 {
		return 0, nil
	}

	m.metrics.RecordPromoted(promoted)

	if err := m.store.RefreshViews(ctx); err != nil {
		return promoted, err
	}

	event := model.PipelineEvent{
		Name:      model.EventBatchPromoted,
		Count:     promoted,
		Timestamp: time.Now(),
	}
	if err := m.events.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish batch_promoted event")
	}
	return promoted, nil
}
