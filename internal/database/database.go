// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wastereport/internal/config"
	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // required for golang-migrate postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // required for golang-migrate file source

	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// MigrationState describes where golang-migrate believes the schema is
type MigrationState struct {
	Path    string
	Version uint
	Dirty   bool
	Applied bool
}

// DefaultDatabaseConfig returns the default database configuration
func DefaultDatabaseConfig() config.DatabaseConfig {
	cfg := config.DatabaseConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	}

	if testURL := os.Getenv("TEST_DATABASE_URL"); testURL != "" {
		cfg.URL = testURL
	}

	return cfg
}

// withPoolDefaults fills unset pool settings from DefaultDatabaseConfig
func withPoolDefaults(cfg config.DatabaseConfig) config.DatabaseConfig {
	defaults := DefaultDatabaseConfig()
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaults.MaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaults.MaxIdleConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	return cfg
}

// InitDB initializes the database with default pool settings and runs migrations
func (dm *Manager) InitDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	cfg := DefaultDatabaseConfig()
	cfg.URL = databaseURL
	return dm.InitDBWithConfig(ctx, cfg)
}

// InitDBWithConfig opens a connection and applies schema.sql plus pending migrations
func (dm *Manager) InitDBWithConfig(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDBWithConfig",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
		attribute.String("db.system", "postgresql"),
		attribute.Bool("migrations.enabled", true),
	)
	defer observability.FinishSpan(span, &err)

	db, err := dm.InitDBWithoutMigrations(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := dm.RunMigrations(ctx, db, cfg.URL); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}

	// key=value DSN, e.g. "host=localhost dbname=waste sslmode=disable"
	for _, part := range strings.Fields(databaseURL) {
		if name, ok := strings.CutPrefix(part, "dbname="); ok && name != "" {
			return name
		}
	}

	return "waste_db"
}

// InitDBWithoutMigrations opens an otelsql-instrumented connection pool and pings it
func (dm *Manager) InitDBWithoutMigrations(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDBWithoutMigrations",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(cfg.URL) == "" {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseConnection, "database url is not configured")
	}
	cfg = withPoolDefaults(cfg)

	// Register the instrumented driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(extractDatabaseName(cfg.URL)),
			otelsql.TraceQueryWithoutArgs(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapError(contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeDatabaseConnection, contextutils.SeverityError,
			"Database connection failed", "", err), "failed to ping database")
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// RunMigrations executes the application schema and then any pending golang-migrate migrations
func (dm *Manager) RunMigrations(ctx context.Context, db *sql.DB, dbURL string) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "RunMigrations",
		attribute.String("db.system", "postgresql"),
	)
	defer observability.FinishSpan(span, &err)
	dm.logger.Info(ctx, "Starting database migrations")

	if err := dm.runApplicationSchema(ctx, db); err != nil {
		return contextutils.WrapError(err, "failed to run application schema")
	}
	dm.logger.Info(ctx, "Application schema applied")

	if err := dm.runGolangMigrate(ctx, dbURL); err != nil {
		return contextutils.WrapError(err, "failed to run golang-migrate migrations")
	}

	dm.logger.Info(ctx, "Database migrations completed")
	return nil
}

// newMigrator builds a golang-migrate instance over the migrations directory
func (dm *Manager) newMigrator(dbURL string) (*migrate.Migrate, string, error) {
	migrationsPath, err := GetMigrationsPath()
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(dbURL) == "" {
		return nil, migrationsPath, contextutils.WrapError(contextutils.ErrDatabaseConnection, "database url is required for migrations")
	}

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsPath), dbURL)
	if err != nil {
		return nil, migrationsPath, contextutils.WrapError(err, "failed to initialize golang-migrate")
	}
	return m, migrationsPath, nil
}

// runGolangMigrate applies pending migrations; a directory without *.up.sql files is a no-op
func (dm *Manager) runGolangMigrate(ctx context.Context, dbURL string) (err error) {
	migrationsPath, err := GetMigrationsPath()
	if err != nil {
		dm.logger.Error(ctx, "Could not find migrations path", err)
		return err
	}

	ctx, span := observability.TraceDatabaseFunction(ctx, "runGolangMigrate",
		attribute.String("migration.path", migrationsPath),
	)
	defer observability.FinishSpan(span, &err)

	count, err := countUpMigrations(migrationsPath)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("migration.files.count", count))
	if count == 0 {
		dm.logger.Info(ctx, "No migration files found, skipping golang-migrate", map[string]interface{}{"path": migrationsPath})
		return nil
	}

	m, _, err := dm.newMigrator(dbURL)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			dm.logger.Error(ctx, "Error closing migration", errors.Join(srcErr, dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		dm.logger.Info(ctx, "No new migrations to apply")
		return nil
	}
	if err != nil {
		return contextutils.WrapError(err, "golang-migrate up failed")
	}

	dm.logger.Info(ctx, "Migrations applied")
	return nil
}

// MigrationStatus reports the current golang-migrate version without changing anything
func (dm *Manager) MigrationStatus(ctx context.Context, dbURL string) (result0 MigrationState, err error) {
	_, span := observability.TraceDatabaseFunction(ctx, "MigrationStatus")
	defer observability.FinishSpan(span, &err)

	m, path, err := dm.newMigrator(dbURL)
	if err != nil {
		return MigrationState{Path: path}, err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{Path: path}, nil
	}
	if err != nil {
		return MigrationState{Path: path}, contextutils.WrapError(err, "failed to read migration version")
	}
	return MigrationState{Path: path, Version: version, Dirty: dirty, Applied: true}, nil
}

func countUpMigrations(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, contextutils.WrapError(err, "could not read migrations directory")
	}
	count := 0
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			count++
		}
	}
	return count, nil
}

// runApplicationSchema executes schema.sql, tables before indexes, ignoring objects that already exist
func (dm *Manager) runApplicationSchema(ctx context.Context, db *sql.DB) (err error) {
	schemaPath, err := getSchemaPath()
	if err != nil {
		return contextutils.WrapError(err, "failed to find schema file")
	}

	ctx, span := observability.TraceDatabaseFunction(ctx, "runApplicationSchema",
		attribute.String("schema.path", schemaPath),
	)
	defer observability.FinishSpan(span, &err)

	schemaSQL, err := os.ReadFile(schemaPath)
	if err != nil {
		return contextutils.WrapError(err, "failed to read schema file")
	}

	statements := parseSchemaStatements(string(schemaSQL))
	span.SetAttributes(attribute.Int("schema.statements.count", len(statements)))

	var indexStatements []string
	for _, statement := range statements {
		upper := strings.ToUpper(statement)
		if strings.HasPrefix(upper, "CREATE INDEX") || strings.HasPrefix(upper, "CREATE UNIQUE INDEX") {
			indexStatements = append(indexStatements, statement)
			continue
		}

		if _, execErr := db.ExecContext(ctx, statement); execErr != nil && !isAlreadyExistsError(execErr) {
			return contextutils.WrapErrorf(execErr, "failed to execute schema statement: %s", statement)
		}
	}

	for _, statement := range indexStatements {
		if _, execErr := db.ExecContext(ctx, statement); execErr != nil && !isAlreadyExistsError(execErr) {
			return contextutils.WrapErrorf(execErr, "failed to execute index statement: %s", statement)
		}
	}

	return nil
}

// findUpwards walks from the working directory towards the root looking for name
func findUpwards(name string) (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(currentDir, name)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", contextutils.ErrorWithContextf("%s not found in any parent directory", name)
		}
		currentDir = parentDir
	}
}

// getSchemaPath finds schema.sql; SCHEMA_PATH takes precedence over the directory search
func getSchemaPath() (string, error) {
	if p := os.Getenv("SCHEMA_PATH"); p != "" {
		return p, nil
	}
	return findUpwards("schema.sql")
}

// GetMigrationsPath finds the migrations directory; MIGRATIONS_PATH takes precedence over the directory search
func GetMigrationsPath() (string, error) {
	if p := os.Getenv("MIGRATIONS_PATH"); p != "" {
		return p, nil
	}
	return findUpwards("migrations")
}

// parseSchemaStatements strips comments and splits a schema file into statements
func parseSchemaStatements(schemaSQL string) []string {
	var cleanedLines []string
	inComment := false

	for _, line := range strings.Split(schemaSQL, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/*") {
			inComment = !strings.HasSuffix(line, "*/")
			continue
		}
		if inComment {
			if strings.HasSuffix(line, "*/") {
				inComment = false
			}
			continue
		}

		if strings.HasPrefix(line, "--") {
			continue
		}
		if commentIndex := strings.Index(line, "--"); commentIndex != -1 {
			line = strings.TrimSpace(line[:commentIndex])
		}

		cleanedLines = append(cleanedLines, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(cleanedLines, " "), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}

// isAlreadyExistsError matches Postgres duplicate-object errors raised by re-running DDL
func isAlreadyExistsError(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}
