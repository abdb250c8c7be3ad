package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func initCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-cache",
		Short: "Load the reference tables from postgres into the lookup cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cmd)
			defer pipeline.Close()

			stats, err := pipeline.InitCache(cmd.Context())
			if err != nil {
				return err
			}
			log.Infof("Lookup cache initialized: %d products, %d currencies, %d regions",
				stats.Products, stats.Currencies, stats.Regions)
			return nil
		},
	}
}
