package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/controllers"
	"github.com/theleywin/SyncRivo-Registry/src/middleware"
)

// HealthRoutes sets up the liveness, readiness and metrics endpoints
func HealthRoutes(app *fiber.App, pinger controllers.Pinger, metrics *middleware.Metrics, logger *zap.Logger) {
	app.Get("/health", controllers.Health)
	app.Get("/ready", controllers.Ready(pinger, logger))

	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}
}
