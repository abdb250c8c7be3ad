package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear queue, cache and dedup state in Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			queues, _ := cmd.Flags().GetBool("queues")
			cache, _ := cmd.Flags().GetBool("cache")
			dedup, _ := cmd.Flags().GetBool("dedup")

			if !all && !queues && !cache && !dedup {
				log.Warn("Specify what to clear (--all, --queues, --cache, --dedup)")
				return nil
			}

			pipeline := newPipeline(cmd)
			defer pipeline.Close()

			if err := pipeline.Clear(cmd.Context(), all || queues, all || cache, all || dedup); err != nil {
				return err
			}
			log.Info("Cleared")
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "Clear all Redis state")
	cmd.Flags().Bool("queues", false, "Clear the ingestion queue and backpressure counter")
	cmd.Flags().Bool("cache", false, "Clear the lookup cache")
	cmd.Flags().Bool("dedup", false, "Clear the deduplication window")
	return cmd
}
