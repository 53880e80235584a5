// Package ports defines the contracts between the logistics core and its adapters:
// repositories for pipeline-owned aggregates, grouped in a UnitOfWork, and the
// collaborator interfaces of the surrounding simulation (world, clock, gates, metrics).
package ports

import (
	"context"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id. Returns errs.ErrObjectNotFound when the handle no
	// longer resolves.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// List returns orders in any of the given statuses, or every order when none is
	// given, sorted by creation (created tick, then id).
	List(ctx context.Context, statuses ...order.Status) ([]*order.Order, error)

	// ListActive returns every non-terminal order in creation order.
	ListActive(ctx context.Context) ([]*order.Order, error)
}
