package cmd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orderflow/orderflow/internal/common/app"
	"github.com/orderflow/orderflow/internal/orderflow"
	"github.com/orderflow/orderflow/internal/orderflow/model"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Display pipeline statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetBool("watch")

			pipeline := newPipeline(cmd)
			defer pipeline.Close()

			if !watch {
				stats, err := pipeline.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printStats(stats)
				return nil
			}
			return watchStats(app.CreateContextWithShutdown(), pipeline)
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "Refresh on pipeline events and every 5s")
	return cmd
}

// watchStats reprints statistics whenever a pipeline event arrives, with a
// periodic refresh as fallback so depth changes are visible even when no
// batch completes.
func watchStats(ctx context.Context, pipeline *orderflow.Pipeline) error {
	events := pipeline.Events.Subscribe(ctx)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		stats, err := pipeline.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(stats)

		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			log.Infof("Event: %s count=%d", event.Name, event.Count)
		case <-ticker.C:
		}
	}
}

func printStats(stats model.PipelineStats) {
	log.Infof("Ingestion queue depth:  %d", stats.QueueDepth)
	log.Infof("Lifetime pushed:        %d", stats.LifetimePushed)
	log.Infof("Dedup window size:      %d", stats.DedupWindowSize)
	log.Infof("Lookup cache size:      %d", stats.LookupCacheSize)
	log.Infof("Staging rows:           %d", stats.StagingCount)
	log.Infof("Durable rows:           %d", stats.DurableCount)
	for _, view := range stats.AggregateViews {
		log.Infof("View %s: populated=%t size=%s", view.Name, view.Populated, view.Size)
	}
}
