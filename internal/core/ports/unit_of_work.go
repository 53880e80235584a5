package ports

import (
	"context"
)

// UnitOfWorkFactory creates a new UnitOfWork for each pipeline stage or request.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is the mutation boundary of one pipeline stage. Changes made through its
// repositories become visible to other units of work only after Commit, all at once.
// Reads inside a unit of work are not guaranteed to observe its own pending writes, so
// handlers keep their own per-stage indexes.
type UnitOfWork interface {
	// Begin starts the unit of work.
	Begin(ctx context.Context) error

	// Commit applies every staged change atomically.
	Commit(ctx context.Context) error

	// Rollback discards staged changes. Calling it after Commit is a no-op error.
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository
	ReservationRepository() ReservationRepository
	ShipmentRepository() ShipmentRepository
	RouteRepository() RouteRepository
	ManifestRepository() ManifestRepository
}
