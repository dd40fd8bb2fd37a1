package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/SyncRivo-Registry/src/controllers"
)

// ConnectionRoutes sets up the list, create, update and delete routes for connections
func ConnectionRoutes(app *fiber.App, cc *controllers.ConnectionController, protect fiber.Handler) {
	connection := app.Group("/api/connections", protect)

	connection.Get("/", cc.GetConnections)
	connection.Post("/", cc.CreateConnection)
	connection.Put("/:id", cc.UpdateConnection)
	connection.Delete("/:id", cc.DeleteConnection)
}
