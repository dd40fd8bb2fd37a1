package routes

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/controllers"
	"github.com/theleywin/SyncRivo-Registry/src/lib"
	"github.com/theleywin/SyncRivo-Registry/src/middleware"
	"github.com/theleywin/SyncRivo-Registry/src/registry"
)

// AppConfig carries everything NewApp wires together.
type AppConfig struct {
	Registry    *registry.Registry
	Logger      *zap.Logger
	Metrics     *middleware.Metrics
	JWTSecret   string
	CORSOrigins []string
}

// NewApp builds the fiber application with middleware and every route registered.
func NewApp(cfg AppConfig) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "syncrivo-registry",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		app.Use(cfg.Metrics.Handler())
	}

	origins := "*"
	if len(cfg.CORSOrigins) > 0 {
		origins = strings.Join(cfg.CORSOrigins, ", ")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	HealthRoutes(app, cfg.Registry, cfg.Metrics, logger)
	ConnectionRoutes(app,
		controllers.NewConnectionController(cfg.Registry, logger),
		middleware.ProtectRoute(cfg.JWTSecret, logger))

	return app
}

// errorHandler renders anything that escaped a handler, including panics
// caught by recover and unmatched routes, in the response envelope.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return lib.MessageResponse(c, code, message)
	}
}
