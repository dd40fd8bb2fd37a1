// Package registry implements list, create, update and delete over connection
// documents, composing validation and the store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/models"
	"github.com/theleywin/SyncRivo-Registry/src/store"
	"github.com/theleywin/SyncRivo-Registry/src/validation"
)

// UpdatePolicy decides whether an update must leave the document valid.
type UpdatePolicy string

const (
	// UpdateLenient applies partial updates without revalidating.
	UpdateLenient UpdatePolicy = "lenient"
	// UpdateStrict rejects updates whose merged document fails validation.
	UpdateStrict UpdatePolicy = "strict"
)

// ParseUpdatePolicy accepts "", "lenient" and "strict".
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch UpdatePolicy(s) {
	case "", UpdateLenient:
		return UpdateLenient, nil
	case UpdateStrict:
		return UpdateStrict, nil
	}
	return "", fmt.Errorf("unknown update validation policy %q", s)
}

// timestampPrecision matches the resolution of Mongo dates.
const timestampPrecision = time.Millisecond

// Observer is told the outcome of every registry operation.
type Observer interface {
	ObserveOperation(op string, err error)
}

// Options configures a Registry. Zero values pick lenient updates and a
// no-op logger.
type Options struct {
	UpdatePolicy UpdatePolicy
	// Clock defaults to time.Now.
	Clock    func() time.Time
	Logger   *zap.Logger
	Observer Observer
}

// Registry applies validation and timestamp rules on top of a ConnectionStore.
type Registry struct {
	store    store.ConnectionStore
	policy   UpdatePolicy
	clock    func() time.Time
	logger   *zap.Logger
	observer Observer
}

// New returns a Registry backed by s.
func New(s store.ConnectionStore, opts Options) *Registry {
	r := &Registry{
		store:    s,
		policy:   opts.UpdatePolicy,
		clock:    opts.Clock,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
	if r.policy == "" {
		r.policy = UpdateLenient
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Policy returns the update validation policy in force.
func (r *Registry) Policy() UpdatePolicy {
	return r.policy
}

func (r *Registry) now() time.Time {
	return r.clock().UTC().Truncate(timestampPrecision)
}

func (r *Registry) observe(op string, err error) {
	if r.observer != nil {
		r.observer.ObserveOperation(op, err)
	}
}

// List returns every connection matching filter. The slice is never nil on
// success and never partial on error.
func (r *Registry) List(ctx context.Context, filter store.ListFilter) (connections []models.Connection, err error) {
	defer func() { r.observe("list", err) }()

	connections, err = r.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if connections == nil {
		connections = []models.Connection{}
	}
	return connections, nil
}

// Create validates payload, stores it with equal created_at and updated_at,
// and returns the document as persisted.
func (r *Registry) Create(ctx context.Context, payload validation.Payload) (created *models.Connection, err error) {
	defer func() { r.observe("create", err) }()

	src, dst, err := validation.ParseConnection(payload)
	if err != nil {
		return nil, err
	}

	c := models.NewConnection(src, dst)
	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	id, err := r.store.Insert(ctx, &c)
	if err != nil {
		return nil, err
	}

	created, err = r.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read back connection %s: %w", id, err)
	}

	r.logger.Info("connection created",
		zap.String("id", id),
		zap.String("provider", string(c.Provider)),
		zap.String("route_provider", string(c.Routes.Provider)))
	return created, nil
}

// Update applies a partial payload to the connection with the given id.
// Identifier and timestamp keys in the payload are ignored. updated_at always
// moves forward, created_at never changes.
func (r *Registry) Update(ctx context.Context, id string, payload validation.Payload) (updated *models.Connection, err error) {
	defer func() { r.observe("update", err) }()

	patch, err := validation.ParsePatch(payload)
	if err != nil {
		return nil, err
	}

	current, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.policy == UpdateStrict {
		if _, err := validation.ValidateConnection(validation.ToPayload(current.Apply(patch))); err != nil {
			return nil, err
		}
	}

	updatedAt := r.now()
	if !updatedAt.After(current.UpdatedAt) {
		updatedAt = current.UpdatedAt.Add(timestampPrecision)
	}

	updated, err = r.store.Update(ctx, id, patch, updatedAt)
	if err != nil {
		return nil, err
	}

	r.logger.Info("connection updated", zap.String("id", id), zap.String("policy", string(r.policy)))
	return updated, nil
}

// Delete removes the connection with the given id.
func (r *Registry) Delete(ctx context.Context, id string) (err error) {
	defer func() { r.observe("delete", err) }()

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("connection deleted", zap.String("id", id))
	return nil
}

// Ping reports whether the store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// IsNotFound reports whether err means no connection had the requested id.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
