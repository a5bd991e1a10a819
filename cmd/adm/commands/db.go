// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"

	"wastereport/internal/database"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	contextutils "wastereport/internal/utils"

	"github.com/spf13/cobra"
)

// Migrator applies and inspects schema migrations
type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB, dbURL string) error
	MigrationStatus(ctx context.Context, dbURL string) (database.MigrationState, error)
}

// DatabaseCommands returns the database management commands
func DatabaseCommands(migrator Migrator, analyticsService services.AnalyticsServiceInterface, logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands.

Available commands:
  migrate - Apply schema.sql and pending migrations
  status  - Show migration version and complaint counts`,
	}

	dbCmd.AddCommand(migrateCmd(migrator, logger, db, databaseURL))
	dbCmd.AddCommand(statusCmd(migrator, analyticsService, db, databaseURL))

	return dbCmd
}

func migrateCmd(migrator Migrator, logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema.sql and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			logger.Info(ctx, "Running migrations", map[string]interface{}{"database_url": maskDatabaseURL(databaseURL)})
			if err := migrator.RunMigrations(ctx, db, databaseURL); err != nil {
				logger.Error(ctx, "Migrations failed", err)
				return contextutils.WrapError(err, "migrations failed")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func statusCmd(migrator Migrator, analyticsService services.AnalyticsServiceInterface, db *sql.DB, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration version and complaint counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Database:   %s\n", maskDatabaseURL(databaseURL))
			fmt.Fprintf(out, "Connection: %s\n", getDatabaseInfo(ctx, db))

			state, err := migrator.MigrationStatus(ctx, databaseURL)
			if err != nil {
				return contextutils.WrapError(err, "failed to read migration status")
			}
			switch {
			case !state.Applied:
				fmt.Fprintf(out, "Migrations: none applied (%s)\n", state.Path)
			case state.Dirty:
				fmt.Fprintf(out, "Migrations: version %d (DIRTY)\n", state.Version)
			default:
				fmt.Fprintf(out, "Migrations: version %d\n", state.Version)
			}

			analytics, err := analyticsService.GetAnalytics(ctx)
			if err != nil {
				return contextutils.WrapError(err, "failed to count complaints")
			}
			fmt.Fprintf(out, "Complaints: %d\n", analytics.Total())
			for _, s := range analytics.Stats {
				fmt.Fprintf(out, "  %-10s %d\n", s.Status, s.Count)
			}
			return nil
		},
	}
}
