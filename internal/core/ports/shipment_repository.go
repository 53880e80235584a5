package ports

import (
	"context"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/shipment"
)

// ShipmentRepository defines the persistence contract for shipment aggregates.
type ShipmentRepository interface {
	Add(ctx context.Context, s *shipment.Shipment) error
	Update(ctx context.Context, s *shipment.Shipment) error
	Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error)

	// List returns shipments in any of the given statuses, or all when none is given,
	// sorted by creation.
	List(ctx context.Context, statuses ...shipment.Status) ([]*shipment.Shipment, error)
}
