package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aimd54/questforge/internal/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return applyMigrations(cfg, log)
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			runner, err := migrations.NewRunner(cfg.Database.Postgres.URL(), log.Named("migrate"))
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()
			return runner.Down(steps)
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			runner, err := migrations.NewRunner(cfg.Database.Postgres.URL(), log.Named("migrate"))
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			version, dirty, err := runner.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return cmd
}
