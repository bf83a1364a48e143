// Package cmd provides the invoicectl commands.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"invoicepro/internal/backend"
	"invoicepro/internal/cli"
	"invoicepro/internal/config"
	applog "invoicepro/internal/log"
)

var (
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Administer the invoicepro record backends",
	Long: `invoicectl inspects and prepares the record backend configured in the
environment (DATA_BACKEND, SQLITE_DB_PATH, POSTGRES_DSN, ...).

Example:
  invoicectl summary invoices
  invoicectl summary timesheet --json
  invoicectl migrate
  invoicectl seed --file data/seed.yaml`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())
}

// loadConfig reads the environment the same way the server does and returns
// the backend settings.
func loadConfig(stderr io.Writer) (*config.Config, backend.Config, *applog.Logger, error) {
	if envFile != "" {
		cli.LoadEnvFile(envFile)
	} else {
		cli.LoadEnvFile()
	}
	cfg := config.Load()
	if debug {
		cfg.LogLevel = "debug"
	}

	lc := applog.DefaultConfig()
	lc.Component = applog.ComponentCLI
	lc.Level = cfg.SlogLevel()
	lc.Output = stderr
	logger := applog.New(lc)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, backend.Config{}, nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, backend.Config{}, nil, err
	}
	return cfg, bc, logger, nil
}

// requireSQL rejects backends without a schema.
func requireSQL(bc backend.Config) error {
	switch bc.Type {
	case backend.SQLiteBackend, backend.PostgresBackend:
		return nil
	default:
		return fmt.Errorf("%s backend has no schema; set DATA_BACKEND to sqlite or postgres", bc.Type)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
