// Package store implements subscription and user persistence on PostgreSQL,
// exposed through the repository interfaces consumed by the billing service
// and API handlers. An in-memory implementation with identical semantics is
// provided for tests and database-less development.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/famloop/backend/pkg/billing"
	"github.com/famloop/backend/pkg/metrics"

	// Register the pgx driver for use with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres holds the database connection and implements the subscription and
// user repositories.
type Postgres struct {
	db      *sql.DB
	catalog *billing.Catalog
	metrics *metrics.Metrics
}

// NewPostgres opens a PostgreSQL connection, applies migrations, and returns
// the store. The metrics instance may be nil.
func NewPostgres(databaseURL string, catalog *billing.Catalog, m *metrics.Metrics) (*Postgres, error) {
	const op = "store.NewPostgres"

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Postgres{db: db, catalog: catalog, metrics: m}, nil
}

// runMigrations applies embedded SQL migrations
func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DB exposes the underlying connection pool, e.g. for the Prometheus
// DBStats collector.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// observe records query duration when metrics are attached
func (p *Postgres) observe(operation string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordDBQuery(operation, time.Since(start))
	}
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping checks if the database is reachable
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
