// Command admin runs maintenance tasks against the PC-Link database:
// migrations, accounts, catalog imports, semesters and recalculation.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tustunkok/pc-link/internal/bootstrap"
	"github.com/tustunkok/pc-link/internal/server"
)

var (
	configPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "PC-Link administration",
	Long: `Administrative commands for PC-Link.

They read the same configuration as the API server and act on its database
directly, so they also work while the server is down.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", server.ConfigPath(), "Configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(semesterCmd)
	rootCmd.AddCommand(recalculateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runWithServices loads the configuration, connects to the database and
// hands the wired services to fn
func runWithServices(cmd *cobra.Command, fn func(ctx context.Context, deps *bootstrap.Dependencies) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPool, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	deps, err := bootstrap.BuildServices(ctx, cfg, dbPool, lgr)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(ctx, deps)
}
