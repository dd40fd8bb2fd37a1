// Package store persists connections. MongoStore is the production backend,
// SQLStore backs local development and tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/theleywin/SyncRivo-Registry/src/models"
)

// CollectionName is the collection (or table) holding connections.
const CollectionName = "channels"

// ErrNotFound is returned when no connection matches an id. Malformed ids
// also return it.
var ErrNotFound = errors.New("connection not found")

// ListFilter narrows a List call. Empty fields are ignored; set fields are ANDed.
type ListFilter struct {
	// SourceProvider matches the top-level provider.
	SourceProvider string
	// TargetProvider matches routes.provider.
	TargetProvider string
	// Search is a case-insensitive substring matched against any of
	// channel_id, outgoing_space, graph_channel_id and their routes.* twins.
	Search string
}

// ConnectionStore is the document store behind the registry.
type ConnectionStore interface {
	List(ctx context.Context, filter ListFilter) ([]models.Connection, error)
	// Insert stores c and returns its generated id. c.Id is ignored.
	Insert(ctx context.Context, c *models.Connection) (string, error)
	FindByID(ctx context.Context, id string) (*models.Connection, error)
	// Update applies patch and sets updated_at, returning the new document.
	Update(ctx context.Context, id string, patch models.ConnectionPatch, updatedAt time.Time) (*models.Connection, error)
	Delete(ctx context.Context, id string) error
	// Migrate prepares indexes or tables. It is safe to run repeatedly.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
