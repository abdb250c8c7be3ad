package main

import (
	"os"

	"github.com/orderflow/orderflow/cmd/orderflow/cmd"
	"github.com/orderflow/orderflow/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
