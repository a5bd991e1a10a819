// Package main provides the admin CLI for the waste reporting service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"wastereport/cmd/adm/commands"
	"wastereport/internal/config"
	"wastereport/internal/database"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	"wastereport/internal/version"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Admin runs are short-lived; keep telemetry off and logs quiet
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "waste-admin", cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(ctx, cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err)
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	policy, err := services.NewTransitionPolicy(cfg.Lifecycle.Transitions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid lifecycle configuration: %v\n", err)
		os.Exit(1)
	}
	metrics := observability.NewMetrics()

	aiService, err := services.NewAIService(cfg.AI, metrics, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize AI gateway: %v\n", err)
		os.Exit(1)
	}

	publisher, err := services.NewNotificationPublisher(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn(ctx, "Redis unavailable, assignments will not be published", map[string]interface{}{"error": err.Error()})
		publisher = services.NoopNotificationPublisher{}
	}
	defer func() { _ = publisher.Close() }()

	userService := services.NewUserServiceWithLogger(db, logger)
	complaintService := services.NewComplaintService(db, policy, aiService, metrics, logger)
	assignmentService := services.NewAssignmentService(db, policy, publisher, services.CreateEmailService(cfg, logger), metrics, logger)
	analyticsService := services.NewAnalyticsService(db, logger)

	rootCmd := &cobra.Command{
		Use:     "adm",
		Short:   "Waste reporting administration tool",
		Version: version.Version,
		Long: `Waste reporting administration tool

Manage user accounts, triage complaints and run database migrations.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.UserCommands(userService, logger, commands.TerminalPasswordPrompt))
	rootCmd.AddCommand(commands.ComplaintCommands(complaintService, assignmentService, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(dbManager, analyticsService, logger, db, cfg.Database.URL))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
