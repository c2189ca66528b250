package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the store schema up to date from the embedded migrations.
// It is idempotent and safe to call on every start - only pending migrations
// are executed. Feature columns are not part of the migrations; run
// ReconcileFeatureColumns after this.
func (s *Store) Migrate() error {
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Closing would close the shared *sql.DB, so only the source is
	// released here.
	defer func() {
		if err := source.Close(); err != nil {
			s.logger.Warn("Failed to close migration source", zap.Error(err))
		}
	}()

	err = m.Up()
	if err == migrate.ErrNoChange {
		s.logger.Info("No migrations to apply (store up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	s.logger.Info("Applied migrations successfully", zap.Uint("version", newVersion))
	return nil
}
