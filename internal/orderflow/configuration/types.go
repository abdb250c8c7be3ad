package configuration

import (
	"time"

	"github.com/orderflow/orderflow/internal/common/config"
)

type PipelineConfiguration struct {
	// Connection configuration for the queue/cache store
	Redis config.RedisConfig
	// Connection configuration for the relational store
	Postgres config.PostgresConfig
	// Port on which prometheus metrics are exposed
	MetricsPort uint16
	// Name of the Redis list used as the ingestion queue
	IngestionQueue string
	// Channel on which pipeline lifecycle events are published
	EventsChannel string
	// Maximum number of records a worker drains per batch
	BatchSize int
	// How long a worker blocks on an empty queue before giving up the drain
	PopTimeout time.Duration
	// How long a worker sleeps after an empty drain
	IdlePollInterval time.Duration
	// Length of the deduplication window
	DedupWindow time.Duration
	// Queue depth above which producers are throttled
	MaxQueueDepth int64
	// Number of concurrent workers started by the process command
	WorkerCount int
}
