package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/lib"
	"github.com/theleywin/SyncRivo-Registry/src/registry"
	"github.com/theleywin/SyncRivo-Registry/src/store"
	"github.com/theleywin/SyncRivo-Registry/src/validation"
)

// ConnectionController serves the /api/connections endpoints.
type ConnectionController struct {
	registry *registry.Registry
	logger   *zap.Logger
}

func NewConnectionController(r *registry.Registry, logger *zap.Logger) *ConnectionController {
	return &ConnectionController{registry: r, logger: logger}
}

// GetConnections lists connections filtered by sourceProvider, targetProvider
// and search. It answers with a bare array.
func (cc *ConnectionController) GetConnections(c *fiber.Ctx) error {
	filter := store.ListFilter{
		SourceProvider: c.Query("sourceProvider"),
		TargetProvider: c.Query("targetProvider"),
		Search:         c.Query("search"),
	}

	connections, err := cc.registry.List(c.UserContext(), filter)
	if err != nil {
		cc.logger.Error("error fetching connections", zap.Error(err))
		return lib.MessageResponse(c, fiber.StatusInternalServerError, "Failed to fetch connections")
	}

	return c.Status(fiber.StatusOK).JSON(connections)
}

// CreateConnection validates and stores a new connection.
func (cc *ConnectionController) CreateConnection(c *fiber.Ctx) error {
	var payload validation.Payload
	if err := c.BodyParser(&payload); err != nil {
		return lib.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := cc.registry.Create(c.UserContext(), payload)
	if err != nil {
		if validation.IsValidationError(err) {
			return lib.MessageResponse(c, fiber.StatusBadRequest, err.Error())
		}
		cc.logger.Error("error creating connection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.Envelope{
			Success: false,
			Message: "Failed to create connection",
			Error:   err.Error(),
		})
	}

	return lib.DataResponse(c, fiber.StatusCreated, created, "Connection created successfully")
}

// UpdateConnection applies a partial update to the connection in :id.
func (cc *ConnectionController) UpdateConnection(c *fiber.Ctx) error {
	id := c.Params("id")

	payload := validation.Payload{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return lib.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	updated, err := cc.registry.Update(c.UserContext(), id, payload)
	switch {
	case err == nil:
		return lib.DataResponse(c, fiber.StatusOK, updated, "Connection updated successfully")
	case registry.IsNotFound(err):
		return lib.MessageResponse(c, fiber.StatusNotFound, "Connection not found")
	case validation.IsValidationError(err):
		return lib.MessageResponse(c, fiber.StatusBadRequest, err.Error())
	}

	cc.logger.Error("error updating connection", zap.String("id", id), zap.Error(err))
	return lib.MessageResponse(c, fiber.StatusInternalServerError, "Failed to update connection")
}

// DeleteConnection removes the connection in :id.
func (cc *ConnectionController) DeleteConnection(c *fiber.Ctx) error {
	id := c.Params("id")

	err := cc.registry.Delete(c.UserContext(), id)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(lib.Envelope{
			Success: true,
			Message: "Connection deleted successfully",
		})
	case registry.IsNotFound(err):
		return lib.MessageResponse(c, fiber.StatusNotFound, "Connection not found")
	}

	cc.logger.Error("error deleting connection", zap.String("id", id), zap.Error(err))
	return lib.MessageResponse(c, fiber.StatusInternalServerError, "Failed to delete connection")
}
