package runtracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/diabetes-classifier/db/schema"
	"github.com/your-org/diabetes-classifier/internal/config"
)

// Connect applies pending schema migrations and opens a connection
// pool to the run-tracking database.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	if err := Migrate(cfg); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach run-tracking database: %w", err)
	}
	return pool, nil
}

// Migrate brings the run-tracking schema up to date from the embedded
// migration files.
func Migrate(cfg config.DBConfig) error {
	src, err := iofs.New(schema.Migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	// golang-migrate's pgx/v5 driver registers itself under "pgx5".
	url := strings.Replace(cfg.URL(), "postgres://", "pgx5://", 1)
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
