package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicepro/internal/backend"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply every pending migration to the sqlite or postgres database named
by DATA_BACKEND. Running it twice is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, bc, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := requireSQL(bc); err != nil {
				return err
			}
			// Opening the repository runs the migrations.
			repo, err := backend.OpenRepository(commandContext(cmd), bc)
			if err != nil {
				return err
			}
			defer repo.Close()
			logger.Info("Schema is up to date", "dialect", repo.Dialect())
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", repo.Dialect())
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var seedFile string
	c := &cobra.Command{
		Use:   "seed",
		Short: "Load seed data into an empty database",
		Long: `Load a seed YAML file (or the built-in demo data) into the sqlite or
postgres database named by DATA_BACKEND. A database that already holds
records is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, bc, _, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := requireSQL(bc); err != nil {
				return err
			}
			if seedFile == "" {
				seedFile = cfg.SeedFile
			}
			ctx := commandContext(cmd)
			repo, err := backend.OpenRepository(ctx, bc)
			if err != nil {
				return err
			}
			defer repo.Close()

			empty, err := repo.IsEmpty(ctx)
			if err != nil {
				return err
			}
			if !empty {
				fmt.Fprintln(cmd.OutOrStdout(), "database already holds records, nothing to seed")
				return nil
			}
			if err := backend.SeedIfEmpty(ctx, repo, seedFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seeded", describeSeed(seedFile))
			return nil
		},
	}
	c.Flags().StringVar(&seedFile, "file", "", "seed YAML file (default SEED_FILE, then the demo data)")
	return c
}

func describeSeed(path string) string {
	if path == "" {
		return "demo data"
	}
	return path
}
