package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orderflow/orderflow/internal/common"
	"github.com/orderflow/orderflow/internal/common/app"
	"github.com/orderflow/orderflow/internal/orderflow"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run workers that drain, enrich and stage queued orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")
			iterations, _ := cmd.Flags().GetInt("iterations")
			batchSize, _ := cmd.Flags().GetInt("batch-size")

			config := loadConfig(cmd.Flags())
			if workers > 0 {
				config.WorkerCount = workers
			}
			if batchSize > 0 {
				config.BatchSize = batchSize
			}

			pipeline := orderflow.NewPipeline(config)
			defer pipeline.Close()

			shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
			defer shutdownMetricServer()

			return pipeline.RunWorkers(app.CreateContextWithShutdown(), config.WorkerCount, iterations)
		},
	}
	cmd.Flags().IntP("workers", "w", 0, "Number of workers (default from config)")
	cmd.Flags().IntP("iterations", "i", 0, "Max iterations per worker (0 = run until stopped)")
	cmd.Flags().IntP("batch-size", "b", 0, "Batch size override")
	return cmd
}
