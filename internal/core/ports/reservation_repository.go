package ports

import (
	"context"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/reservation"
)

// ReservationRepository defines the persistence contract for reservations.
type ReservationRepository interface {
	Add(ctx context.Context, r *reservation.Reservation) error
	Update(ctx context.Context, r *reservation.Reservation) error

	// Remove destroys a reservation. Removing an unknown id is not an error.
	Remove(ctx context.Context, id kernel.UUID) error

	Get(ctx context.Context, id kernel.UUID) (*reservation.Reservation, error)

	// ListByOrder returns every reservation owned by an order.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*reservation.Reservation, error)

	// List returns reservations in any of the given statuses, or all when none is given,
	// sorted by creation.
	List(ctx context.Context, statuses ...reservation.Status) ([]*reservation.Reservation, error)
}
