package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Promote staged orders to durable storage and refresh aggregate views",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cmd)
			defer pipeline.Close()

			promoted, err := pipeline.Promote(cmd.Context())
			if err != nil {
				return err
			}
			if promoted == 0 {
				log.Info("No staged orders to promote")
				return nil
			}
			log.Infof("Promoted %d orders to durable storage", promoted)
			return nil
		},
	}
}
