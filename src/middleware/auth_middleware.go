package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/lib"
)

// ProtectRoute requires a valid bearer token signed with secret. With an
// empty secret every request passes, which keeps the API open by default.
// The token subject is stored in Locals("subject").
func ProtectRoute(secret string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return lib.MessageResponse(c, fiber.StatusUnauthorized, "Unauthorized - no token provided")
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return lib.MessageResponse(c, fiber.StatusUnauthorized, "Unauthorized - invalid token format")
		}

		claims, err := lib.VerifyJWT(secret, token)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err), zap.String("path", c.Path()))
			return lib.MessageResponse(c, fiber.StatusUnauthorized, "Unauthorized - invalid token")
		}

		c.Locals("subject", claims.Subject)
		return c.Next()
	}
}
