// Package migrations applies the versioned SQL schema with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/aimd54/questforge/pkg/logger"
)

//go:embed sql/*.sql
var files embed.FS

// Runner applies schema migrations to a database URL.
type Runner struct {
	m   *migrate.Migrate
	log *logger.Logger
}

// NewRunner creates a migration runner for the given postgres:// URL.
func NewRunner(databaseURL string, log *logger.Logger) (*Runner, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Runner{m: m, log: log}, nil
}

// Up applies all pending migrations.
func (r *Runner) Up() error {
	if err := r.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	r.logVersion("Migrations applied")
	return nil
}

// Down rolls back the given number of migrations.
func (r *Runner) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	if err := r.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	r.logVersion("Migrations rolled back")
	return nil
}

// Version returns the current schema version.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (r *Runner) logVersion(msg string) {
	version, dirty, err := r.Version()
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to read schema version")
		return
	}
	r.log.Info().Uint("version", version).Bool("dirty", dirty).Msg(msg)
}
