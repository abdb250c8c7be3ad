package orderflow

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orderflow/orderflow/internal/common/database"
	"github.com/orderflow/orderflow/internal/orderflow/configuration"
	"github.com/orderflow/orderflow/internal/orderflow/ingest"
	"github.com/orderflow/orderflow/internal/orderflow/lookup"
	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/processor"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
	"github.com/orderflow/orderflow/internal/orderflow/stagingdb"
	"github.com/orderflow/orderflow/internal/orderflow/stagingdb/schema"
)

const (
	dedupWindowKey        = "orders:dedup"
	lookupCacheKey        = "lookups"
	backpressureNamespace = "backpressure"
)

// Pipeline wires the Redis and Postgres backed components together for the
// CLI commands. The postgres pool is opened lazily because several commands
// only touch Redis.
type Pipeline struct {
	config *configuration.PipelineConfiguration
	redis  redis.UniversalClient
	db     *pgxpool.Pool

	Queue        repository.QueueRepository
	Dedup        repository.DeduplicationWindow
	Backpressure repository.Backpressure
	Cache        repository.LookupCache
	Events       *repository.RedisEventPublisher
	Metrics      *metrics.Metrics
}

func NewPipeline(config *configuration.PipelineConfiguration) *Pipeline {
	db := redis.NewUniversalClient(config.Redis.AsUniversalOptions())
	return &Pipeline{
		config:       config,
		redis:        db,
		Queue:        repository.NewRedisQueueRepository(db, config.IngestionQueue),
		Dedup:        repository.NewRedisDeduplicationWindow(db, dedupWindowKey, config.DedupWindow),
		Backpressure: repository.NewRedisBackpressure(db, backpressureNamespace),
		Cache:        repository.NewRedisLookupCache(db, lookupCacheKey),
		Events:       repository.NewRedisEventPublisher(db, config.EventsChannel),
		Metrics:      metrics.Get(),
	}
}

func (p *Pipeline) OpenPostgres(ctx context.Context) error {
	if p.db != nil {
		return nil
	}
	db, err := database.OpenPgxPool(ctx, p.config.Postgres)
	if err != nil {
		return errors.WithMessage(err, "error connecting to postgres")
	}
	p.db = db
	return nil
}

// Migrate brings the postgres schema and seeded reference tables up to date.
func (p *Pipeline) Migrate(ctx context.Context) error {
	if err := p.OpenPostgres(ctx); err != nil {
		return err
	}
	return schema.Migrate(ctx, p.db)
}

func (p *Pipeline) StagingStore() stagingdb.StagingStore {
	return stagingdb.NewPostgresStagingStore(p.db, p.Metrics)
}

func (p *Pipeline) Ingester() *ingest.Ingester {
	return ingest.NewIngester(p.Queue, p.Dedup, p.Backpressure, p.Metrics, p.config.MaxQueueDepth)
}

// InitCache snapshots the reference tables from postgres into the lookup
// cache. Safe to call repeatedly.
func (p *Pipeline) InitCache(ctx context.Context) (lookup.PreloadStats, error) {
	if err := p.OpenPostgres(ctx); err != nil {
		return lookup.PreloadStats{}, err
	}
	return lookup.NewPreloader(p.db, p.Cache).PreloadAll(ctx)
}

// RunWorkers starts workerCount workers and blocks until they all stop,
// either because ctx was cancelled or maxIterations was reached.
func (p *Pipeline) RunWorkers(ctx context.Context, workerCount int, maxIterations int) error {
	if err := p.OpenPostgres(ctx); err != nil {
		return err
	}

	enricher := processor.NewEnricher(p.Cache)
	store := p.StagingStore()

	g, ctx := errgroup.WithContext(ctx)
	for i := 1; i <= workerCount; i++ {
		worker := processor.NewWorker(
			i,
			p.Queue,
			p.Backpressure,
			enricher,
			store,
			p.Events,
			p.Metrics,
			p.config.BatchSize,
			p.config.PopTimeout,
			p.config.IdlePollInterval,
		)
		g.Go(func() error {
			return worker.Run(ctx, maxIterations)
		})
	}
	return g.Wait()
}

// DrainQueue runs workerCount workers until the queue is fully consumed and
// returns the aggregate result. Unlike RunWorkers it terminates on its own,
// which is what the benchmark needs.
func (p *Pipeline) DrainQueue(ctx context.Context, workerCount int) (model.BatchResult, error) {
	total := model.BatchResult{}
	if err := p.OpenPostgres(ctx); err != nil {
		return total, err
	}

	enricher := processor.NewEnricher(p.Cache)
	store := p.StagingStore()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i := 1; i <= workerCount; i++ {
		worker := processor.NewWorker(
			i,
			p.Queue,
			p.Backpressure,
			enricher,
			store,
			p.Events,
			p.Metrics,
			p.config.BatchSize,
			p.config.PopTimeout,
			p.config.IdlePollInterval,
		)
		g.Go(func() error {
			result, err := worker.RunUntilEmpty(ctx)
			mu.Lock()
			total.Add(result)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	return total, err
}

func (p *Pipeline) Promote(ctx context.Context) (int64, error) {
	if err := p.OpenPostgres(ctx); err != nil {
		return 0, err
	}
	manager := stagingdb.NewPromotionManager(p.StagingStore(), p.Events, p.Metrics)
	return manager.Promote(ctx)
}

// Stats gathers a point-in-time snapshot across both stores.
func (p *Pipeline) Stats(ctx context.Context) (model.PipelineStats, error) {
	stats := model.PipelineStats{}
	var err error

	if stats.QueueDepth, err = p.Queue.Size(ctx); err != nil {
		return stats, err
	}
	if stats.LifetimePushed, err = p.Queue.Lifetime(ctx); err != nil {
		return stats, err
	}
	if stats.DedupWindowSize, err = p.Dedup.CountSeen(ctx); err != nil {
		return stats, err
	}
	if stats.LookupCacheSize, err = p.Cache.Size(ctx); err != nil {
		return stats, err
	}

	if err = p.OpenPostgres(ctx); err != nil {
		return stats, err
	}
	store := p.StagingStore()
	if stats.StagingCount, err = store.Count(ctx); err != nil {
		return stats, err
	}
	if stats.DurableCount, err = store.DurableCount(ctx); err != nil {
		return stats, err
	}
	if stats.AggregateViews, err = store.ListViews(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// Clear wipes the selected Redis state. Durable storage is never touched.
func (p *Pipeline) Clear(ctx context.Context, queues bool, cache bool, dedup bool) error {
	if queues {
		if err := p.Queue.Clear(ctx); err != nil {
			return err
		}
		if err := p.Backpressure.Reset(ctx, ingest.BackpressureQueueName); err != nil {
			return err
		}
	}
	if cache {
		if err := p.Cache.Clear(ctx); err != nil {
			return err
		}
	}
	if dedup {
		if err := p.Dedup.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) Close() {
	if err := p.redis.Close(); err != nil {
		log.WithError(err).Warn("failed to close redis client")
	}
	if p.db != nil {
		p.db.Close()
	}
}
