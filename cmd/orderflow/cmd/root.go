package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/orderflow/orderflow/internal/common"
	"github.com/orderflow/orderflow/internal/orderflow"
	"github.com/orderflow/orderflow/internal/orderflow/configuration"
)

const defaultConfigPath = "./config/orderflow"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "orderflow",
		Short:        "orderflow runs the order ingestion pipeline.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSlice("config", []string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")

	cmd.AddCommand(
		migrateCmd(),
		initCacheCmd(),
		generateCmd(),
		processCmd(),
		promoteCmd(),
		benchmarkCmd(),
		statsCmd(),
		clearCmd(),
	)
	return cmd
}

func loadConfig(flags *pflag.FlagSet) *configuration.PipelineConfiguration {
	overrideConfigs, _ := flags.GetStringSlice("config")
	config := &configuration.PipelineConfiguration{}
	common.LoadConfig(config, defaultConfigPath, overrideConfigs)
	return config
}

func newPipeline(cmd *cobra.Command) *orderflow.Pipeline {
	return orderflow.NewPipeline(loadConfig(cmd.Flags()))
}
