package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	metricsmigrations "github.com/goliatone/go-issue-metrics/migrations"
	sqlstore "github.com/goliatone/go-issue-metrics/store/sql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

type dbConfig struct {
	driver string
	server string
	debug  bool
}

func (c dbConfig) GetDebug() bool {
	return c.debug
}

func (c dbConfig) GetDriver() string {
	return c.driver
}

func (c dbConfig) GetServer() string {
	return c.server
}

func (c dbConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (c dbConfig) GetOtelIdentifier() string {
	return "go-issue-metrics"
}

// openStores connects to the configured database and binds the SQL store
// provider. The returned cleanup closes the underlying connection.
func openStores(flags *rootFlags) (*persistence.Client, *sqlstore.StoreProvider, func(), error) {
	driver := envOrFlag(flags.dbDriver, "DB_DRIVER", "sqlite")
	dsn := envOrFlag(flags.dbDSN, "DB_DSN", "file:issuehookd.db?_foreign_keys=on")

	driverName, dialect, _, err := resolveDialect(driver)
	if err != nil {
		return nil, nil, nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if driverName == "sqlite3" {
		// Shared in-process writes need a single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(dbConfig{
		driver: driverName,
		server: dsn,
		debug:  flags.dbDebug,
	}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, fmt.Errorf("bind persistence client: %w", err)
	}

	provider, err := sqlstore.NewFromPersistence(client)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, fmt.Errorf("bind store provider: %w", err)
	}

	cleanup := func() {
		_ = sqlDB.Close()
	}
	return client, provider, cleanup, nil
}

// applyMigrations registers the embedded schema for the active dialect and
// runs any pending migrations.
func applyMigrations(ctx context.Context, client *persistence.Client, flags *rootFlags) error {
	driver := envOrFlag(flags.dbDriver, "DB_DRIVER", "sqlite")
	_, _, target, err := resolveDialect(driver)
	if err != nil {
		return err
	}

	if _, err := metricsmigrations.Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, metricsmigrations.WithValidationTargets(target)); err != nil {
		return err
	}
	return client.Migrate(ctx)
}

func resolveDialect(driver string) (string, schema.Dialect, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return "postgres", pgdialect.New(), metricsmigrations.DialectPostgres, nil
	case "sqlite", "sqlite3":
		return "sqlite3", sqlitedialect.New(), metricsmigrations.DialectSQLite, nil
	default:
		return "", nil, "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
