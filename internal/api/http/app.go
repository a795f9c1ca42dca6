package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/observability"
)

// NewApp builds the Fiber application with global middlewares attached.
func NewApp(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.Upload.BodyLimit(),
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler(logger, metrics),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	return app
}
