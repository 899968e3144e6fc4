package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "leasectl",
		Short:         "Operator tooling for the lease service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/default.yaml", "path to the service config file")

	rootCmd.AddCommand(
		migrateCmd(&configPath),
		sweepExpiredCmd(&configPath),
		purgeCmd(&configPath),
		relayOutboxCmd(&configPath),
		seedDirectoryCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
