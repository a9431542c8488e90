package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // sqlite:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// ─────────────────────────────────────────────────────────────────────────────
// Embedded schema migrations
// ─────────────────────────────────────────────────────────────────────────────

// Migrator applies the embedded migrations for the configured driver.  Each
// call opens its own short-lived connection so the application pool is never
// closed underneath a running server.
type Migrator struct {
	cfg    config.DatabaseConfig
	logger logging.Logger
}

func NewMigrator(cfg config.DatabaseConfig, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Migrator{cfg: cfg, logger: log}
}

// MigrationURL renders the golang-migrate database URL for cfg.
func MigrationURL(cfg config.DatabaseConfig) string {
	if cfg.Driver == DriverSQLite {
		return "sqlite://" + cfg.Path
	}
	return "pgx5://" + strings.TrimPrefix(cfg.DSN(), "postgres://")
}

func migrationDir(driver string) string {
	if driver == DriverSQLite {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, migrationDir(m.cfg.Driver))
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	mg, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(m.cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mg, nil
}

// Up applies every pending migration.  An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("Failed to read migration version", logging.Err(err))
	}
	m.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	return nil
}

// Version reports the applied version; 0 when nothing has been applied.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err = mg.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

//Personal.AI order the ending
