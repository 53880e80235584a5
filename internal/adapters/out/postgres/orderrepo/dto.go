// Package orderrepo persists order aggregates with gorm. It converts between the domain
// order and its row in the "orders" table.
package orderrepo

import (
	"errors"

	"logistics/internal/adapters/out/postgres/columns"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of an order. Status and created tick are indexed because every
// pipeline stage lists orders by status in creation order.
type OrderDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind          int        `gorm:"not null"`
	Priority      int        `gorm:"not null"`
	Status        int        `gorm:"not null;index"`
	SourceID      uuid.UUID  `gorm:"type:uuid;not null"`
	DestinationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ResourceID    string     `gorm:"type:varchar(64);not null"`
	ResourceIndex int        `gorm:"not null"`
	Requested     float64    `gorm:"not null"`
	Reserved      float64    `gorm:"not null"`
	TransportID   *uuid.UUID `gorm:"type:uuid;index"`
	ShipmentID    *uuid.UUID `gorm:"type:uuid;index"`
	MergedInto    *uuid.UUID `gorm:"type:uuid"`
	Failure       int        `gorm:"not null"`
	CreatedTick   uint64     `gorm:"not null;index"`
}

// TableName overrides gorm's default "order_dtos".
func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.State()
	return OrderDTO{
		ID:            columns.ID(s.ID),
		Kind:          int(s.Kind),
		Priority:      int(s.Priority),
		Status:        int(s.Status),
		SourceID:      columns.ID(s.Source),
		DestinationID: columns.ID(s.Destination),
		ResourceID:    s.ResourceID,
		ResourceIndex: s.ResourceIndex,
		Requested:     s.Requested,
		Reserved:      s.Reserved,
		TransportID:   columns.OptionalID(s.TransportID),
		ShipmentID:    columns.OptionalID(s.ShipmentID),
		MergedInto:    columns.OptionalID(s.MergedInto),
		Failure:       int(s.Failure),
		CreatedTick:   uint64(s.CreatedTick),
	}
}

// toDomain rebuilds the aggregate through RestoreOrder, so a corrupt row surfaces as a
// validation error instead of an inconsistent order.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, idErr := columns.ToID(dto.ID)
	source, sourceErr := columns.ToID(dto.SourceID)
	destination, destinationErr := columns.ToID(dto.DestinationID)
	transportID, transportErr := columns.ToOptionalID(dto.TransportID)
	shipmentID, shipmentErr := columns.ToOptionalID(dto.ShipmentID)
	mergedInto, mergedErr := columns.ToOptionalID(dto.MergedInto)
	if err := errors.Join(idErr, sourceErr, destinationErr, transportErr, shipmentErr, mergedErr); err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.State{
		ID:            id,
		Kind:          order.Kind(dto.Kind),
		Priority:      order.Priority(dto.Priority),
		Status:        order.Status(dto.Status),
		Source:        source,
		Destination:   destination,
		ResourceID:    dto.ResourceID,
		ResourceIndex: dto.ResourceIndex,
		Requested:     dto.Requested,
		Reserved:      dto.Reserved,
		TransportID:   transportID,
		ShipmentID:    shipmentID,
		MergedInto:    mergedInto,
		Failure:       kernel.FailureReason(dto.Failure),
		CreatedTick:   kernel.Tick(dto.CreatedTick),
	})
}

func toDomainList(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
