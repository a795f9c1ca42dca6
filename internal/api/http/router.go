package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/config"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Employees      *handlers.EmployeesHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	// RequireAuth guards the employee routes with AuthMiddleware.
	RequireAuth bool
	Upload      config.UploadConfig
	// Gatherer backs /metrics. The route is skipped when nil.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Static(cfg.Upload.PublicPath, cfg.Upload.Dir, fiber.Static{Browse: false})

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	var guards []fiber.Handler
	if cfg.RequireAuth {
		guards = append(guards, cfg.AuthMiddleware.Handle)
	}
	employees := api.Group("/employees", guards...)
	// search routes precede /:id so "search" is never taken as an id
	employees.Get("/search", cfg.Employees.Search)
	employees.Get("/search/:query", cfg.Employees.Search)
	employees.Get("/", cfg.Employees.List)
	employees.Post("/", cfg.Employees.Create)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Put("/:id", cfg.Employees.Update)
	employees.Delete("/:id", cfg.Employees.Delete)
}
