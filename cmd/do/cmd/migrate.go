package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brickfund/platform/internal/config"
	"github.com/brickfund/platform/internal/db"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd, db.RunMigrations, "migrations applied")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd, db.MigrateDown, "last migration rolled back")
		},
	})

	return cmd
}

type migrateFunc = func(ctx context.Context, database *sql.DB, driver string) error

func migrate(cmd *cobra.Command, run migrateFunc, done string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(database)

	err = run(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
