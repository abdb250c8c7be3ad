package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema and seeded reference tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cmd)
			defer pipeline.Close()

			if err := pipeline.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("Database schema is up to date")
			return nil
		},
	}
}
