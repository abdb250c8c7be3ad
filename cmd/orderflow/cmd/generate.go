package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orderflow/orderflow/internal/orderflow/ingest"
	"github.com/orderflow/orderflow/internal/orderflow/model"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample orders and push them onto the ingestion queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			duplicateRate, _ := cmd.Flags().GetFloat64("duplicates")
			burst, _ := cmd.Flags().GetBool("burst")

			pipeline := newPipeline(cmd)
			defer pipeline.Close()

			generator := ingest.NewGenerator(duplicateRate, time.Now().UnixNano())
			var records []*model.Record
			if burst {
				records = generator.GenerateBurst(count, time.Now())
			} else {
				records = generator.GenerateBatch(count, time.Now(), time.Hour)
			}

			result, err := pipeline.Ingester().Ingest(cmd.Context(), records)
			if err != nil {
				return err
			}
			if result.Throttled {
				log.Warnf("Queue is full, rejected all %d records; retry later", result.Total)
				return nil
			}
			log.Infof("Ingested %d records: %d new, %d duplicates, %d queued",
				result.Total, result.New, result.Duplicates, result.Queued)
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1000, "Number of orders to generate")
	cmd.Flags().Float64P("duplicates", "d", 0.05, "Duplicate rate (0.0-1.0)")
	cmd.Flags().Bool("burst", false, "Generate all orders at the same timestamp")
	return cmd
}
