package persistence

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MigrationAction names a migrate command.
type MigrationAction string

const (
	MigrateUp      MigrationAction = "up"
	MigrateDown    MigrationAction = "down"
	MigrateVersion MigrationAction = "version"
)

// RunMigrations applies pending migrations from dir.
func RunMigrations(dsn, dir string, logger *zap.Logger) error {
	return Migrate(MigrateUp, dsn, dir, logger)
}

// Migrate executes action against the database at dsn using files in dir.
func Migrate(action MigrationAction, dsn, dir string, logger *zap.Logger) error {
	if dsn == "" {
		logger.Warn("no postgres dsn available; skipping migrations")
		return nil
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir %s: %w", dir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case MigrateUp:
		err = m.Up()
	case MigrateDown:
		err = m.Down()
	case MigrateVersion:
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if verr != nil {
			return verr
		}
		logger.Info("migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unknown migration action %q", action)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", action, err)
	}
	logger.Info("migrations applied", zap.String("action", string(action)))
	return nil
}
