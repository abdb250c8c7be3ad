package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orderflow/orderflow/internal/common/app"
	"github.com/orderflow/orderflow/internal/orderflow"
	"github.com/orderflow/orderflow/internal/orderflow/ingest"
)

func benchmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run an end-to-end ingest, process and promote benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			total, _ := cmd.Flags().GetInt("total")
			duplicateRate, _ := cmd.Flags().GetFloat64("duplicates")
			batchSize, _ := cmd.Flags().GetInt("batch-size")
			workers, _ := cmd.Flags().GetInt("workers")
			skipCache, _ := cmd.Flags().GetBool("skip-cache")

			config := loadConfig(cmd.Flags())
			if batchSize > 0 {
				config.BatchSize = batchSize
			}
			if workers > 0 {
				config.WorkerCount = workers
			}

			pipeline := orderflow.NewPipeline(config)
			defer pipeline.Close()
			ctx := app.CreateContextWithShutdown()

			if !skipCache {
				if _, err := pipeline.InitCache(ctx); err != nil {
					return err
				}
				log.Info("Lookup cache initialized")
			}

			start := time.Now()

			log.Infof("Phase 1: ingesting %d orders", total)
			generator := ingest.NewGenerator(duplicateRate, time.Now().UnixNano())
			records := generator.GenerateBatch(total, time.Now().Add(-24*time.Hour), 24*time.Hour)

			ingestStart := time.Now()
			ingested, err := pipeline.Ingester().Ingest(ctx, records)
			if err != nil {
				return err
			}
			if ingested.Throttled {
				log.Warn("Queue is full; clear it or raise maxQueueDepth before benchmarking")
				return nil
			}
			ingestTime := time.Since(ingestStart)
			log.Infof("Ingested %d orders in %s (%.0f orders/sec, %d duplicates caught)",
				ingested.Queued, ingestTime, rate(ingested.Queued, ingestTime), ingested.Duplicates)

			log.Infof("Phase 2: processing with %d workers", config.WorkerCount)
			processStart := time.Now()
			processed, err := pipeline.DrainQueue(ctx, config.WorkerCount)
			if err != nil {
				return err
			}
			processTime := time.Since(processStart)
			log.Infof("Processed %d orders in %s (%.0f orders/sec, %d enrichment errors)",
				processed.Drained, processTime, rate(processed.Drained, processTime), processed.EnrichmentErrors)

			log.Info("Phase 3: promoting to durable storage")
			promoteStart := time.Now()
			promoted, err := pipeline.Promote(ctx)
			if err != nil {
				return err
			}
			promoteTime := time.Since(promoteStart)
			log.Infof("Promoted %d orders in %s (%.0f orders/sec)",
				promoted, promoteTime, rate(int(promoted), promoteTime))

			totalTime := time.Since(start)
			log.Infof("Benchmark complete in %s, end-to-end throughput %.0f orders/sec",
				totalTime, rate(int(promoted), totalTime))
			return nil
		},
	}
	cmd.Flags().IntP("total", "t", 100000, "Total orders to generate")
	cmd.Flags().Float64P("duplicates", "d", 0.05, "Duplicate rate (0.0-1.0)")
	cmd.Flags().IntP("batch-size", "b", 0, "Batch size override")
	cmd.Flags().IntP("workers", "w", 0, "Number of workers (default from config)")
	cmd.Flags().Bool("skip-cache", false, "Skip lookup cache initialization")
	return cmd
}

func rate(count int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}
