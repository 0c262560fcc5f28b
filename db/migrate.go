package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies every pending up migration of the given driver to db.
// The handle stays open: only the migration driver's own connection is released.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", driver, err)
	}

	var (
		target  database.Driver
		release func() error
	)
	switch driver {
	case DriverPostgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire migration connection: %w", err)
		}
		pg, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to init postgres migration driver: %w", err)
		}
		target, release = pg, pg.Close
	case DriverSQLite:
		// sqlite.Close would close db itself, so there is nothing to release
		lite, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to init sqlite migration driver: %w", err)
		}
		target, release = lite, func() error { return nil }
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
