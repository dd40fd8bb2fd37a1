package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/lib"
)

const ServiceName = "connection-registry"

// Pinger is satisfied by the registry.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is the liveness probe. It never touches the store.
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC(),
	})
}

// Ready answers 200 while the store responds to a ping, 503 otherwise.
func Ready(p Pinger, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			return lib.MessageResponse(c, fiber.StatusServiceUnavailable, "Store unavailable")
		}
		return lib.DataResponse(c, fiber.StatusOK, nil, "ready")
	}
}
