package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/employee-directory/internal/api/http"
	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/events"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/persistence"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/service"
	"github.com/spec-kit/employee-directory/internal/upload"
	"github.com/spec-kit/employee-directory/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		employeeRepo repository.EmployeeRepository
		userRepo     repository.UserRepository
		tx           service.TransactionManager
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		employeeRepo = repository.NewEmployeeRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		tx = persistence.NewTransactionManager(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set; records are kept in memory and lost on restart")
		employeeRepo = repository.NewMemoryEmployeeRepository()
		userRepo = repository.NewMemoryUserRepository()
	}

	pictures, err := upload.NewStore(cfg.Upload)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartPictureJanitor(dispatcher, pictures, logger)

	employeeService := service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo: employeeRepo,
		Pictures:     pictures,
		Tx:           tx,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: userRepo,
		Revoker:  redis,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, redis)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	app := httptransport.NewApp(cfg, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Employees:      handlers.NewEmployeesHandler(employeeService),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
		RequireAuth:    cfg.Auth.Enforce,
		Upload:         cfg.Upload,
		Gatherer:       registry,
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.Bool("auth_enforced", cfg.Auth.Enforce))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
