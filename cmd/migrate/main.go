package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/persistence"
)

func main() {
	migrationsDir := flag.String("dir", "", "directory containing migration files (defaults to POSTGRES_MIGRATIONS_DIR)")
	flag.Parse()

	action := persistence.MigrateUp
	if flag.NArg() > 0 {
		action = persistence.MigrationAction(flag.Arg(0))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}
	dir := cfg.Postgres.MigrationsDir
	if *migrationsDir != "" {
		dir = *migrationsDir
	}

	if err := persistence.Migrate(action, cfg.Postgres.DSN, dir, logger); err != nil {
		logger.Fatal("migration failed", zap.String("action", string(action)), zap.Error(err))
	}
	logger.Info("migration completed", zap.String("action", string(action)))
}
