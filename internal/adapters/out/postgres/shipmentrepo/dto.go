// Package shipmentrepo persists shipments and their per-order allocations.
package shipmentrepo

import (
	"errors"

	"logistics/internal/adapters/out/postgres/columns"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"

	"github.com/google/uuid"
)

// ShipmentDTO is the row of a shipment. Its allocations live in "shipment_allocations".
type ShipmentDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Status        int             `gorm:"not null;index"`
	Mode          int             `gorm:"not null"`
	TransportID   *uuid.UUID      `gorm:"type:uuid;index"`
	RouteID       *uuid.UUID      `gorm:"type:uuid;index"`
	SourceID      uuid.UUID       `gorm:"type:uuid;not null"`
	DestinationID uuid.UUID       `gorm:"type:uuid;not null"`
	Profile       ProfileDTO      `gorm:"embedded;embeddedPrefix:profile_"`
	Allocations   []AllocationDTO `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedTick   uint64          `gorm:"not null;index"`
	ETATick       uint64          `gorm:"not null"`
	DepartureTick *uint64
	ArrivalTick   *uint64
	Failure       int `gorm:"not null"`
}

func (ShipmentDTO) TableName() string {
	return "shipments"
}

// ProfileDTO is the route profile embedded in the shipment row.
type ProfileDTO struct {
	RiskTolerance    float64
	AllowRestricted  bool
	RequireSecrecy   bool
	RequiredServices uint8
}

// AllocationDTO is one order carried by a shipment. Position keeps allocation order.
type AllocationDTO struct {
	ShipmentID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position      int       `gorm:"not null"`
	ResourceID    string    `gorm:"type:varchar(64);not null"`
	Requested     float64   `gorm:"not null"`
	Actual        float64   `gorm:"not null"`
	ContainerSlot string    `gorm:"type:varchar(64)"`
}

func (AllocationDTO) TableName() string {
	return "shipment_allocations"
}

func profileFromDomain(p route.Profile) ProfileDTO {
	return ProfileDTO{
		RiskTolerance:    p.RiskTolerance,
		AllowRestricted:  p.AllowRestricted,
		RequireSecrecy:   p.RequireSecrecy,
		RequiredServices: uint8(p.RequiredServices),
	}
}

func (p ProfileDTO) toDomain() route.Profile {
	return route.Profile{
		RiskTolerance:    p.RiskTolerance,
		AllowRestricted:  p.AllowRestricted,
		RequireSecrecy:   p.RequireSecrecy,
		RequiredServices: node.ServiceFlags(p.RequiredServices),
	}
}

func fromDomain(s *shipment.Shipment) ShipmentDTO {
	st := s.State()
	id := columns.ID(st.ID)

	allocations := make([]AllocationDTO, 0, len(st.Allocations))
	for i, a := range st.Allocations {
		allocations = append(allocations, AllocationDTO{
			ShipmentID:    id,
			OrderID:       columns.ID(a.OrderID),
			Position:      i,
			ResourceID:    a.ResourceID,
			Requested:     a.Requested,
			Actual:        a.Actual,
			ContainerSlot: a.ContainerSlot,
		})
	}

	return ShipmentDTO{
		ID:            id,
		Status:        int(st.Status),
		Mode:          int(st.Mode),
		TransportID:   columns.OptionalID(st.TransportID),
		RouteID:       columns.OptionalID(st.RouteID),
		SourceID:      columns.ID(st.Source),
		DestinationID: columns.ID(st.Destination),
		Profile:       profileFromDomain(st.Profile),
		Allocations:   allocations,
		CreatedTick:   uint64(st.CreatedTick),
		ETATick:       uint64(st.ETATick),
		DepartureTick: columns.OptionalTick(st.DepartureTick),
		ArrivalTick:   columns.OptionalTick(st.ArrivalTick),
		Failure:       int(st.Failure),
	}
}

// toDomain expects dto.Allocations sorted by position.
func toDomain(dto ShipmentDTO) (*shipment.Shipment, error) {
	id, idErr := columns.ToID(dto.ID)
	source, sourceErr := columns.ToID(dto.SourceID)
	destination, destinationErr := columns.ToID(dto.DestinationID)
	transportID, transportErr := columns.ToOptionalID(dto.TransportID)
	routeID, routeErr := columns.ToOptionalID(dto.RouteID)
	if err := errors.Join(idErr, sourceErr, destinationErr, transportErr, routeErr); err != nil {
		return nil, err
	}

	allocations := make([]shipment.Allocation, 0, len(dto.Allocations))
	for _, a := range dto.Allocations {
		orderID, err := columns.ToID(a.OrderID)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, shipment.Allocation{
			OrderID:       orderID,
			ResourceID:    a.ResourceID,
			Requested:     a.Requested,
			Actual:        a.Actual,
			ContainerSlot: a.ContainerSlot,
		})
	}

	return shipment.RestoreShipment(shipment.State{
		ID:            id,
		Status:        shipment.Status(dto.Status),
		Mode:          shipment.Mode(dto.Mode),
		TransportID:   transportID,
		RouteID:       routeID,
		Source:        source,
		Destination:   destination,
		Profile:       dto.Profile.toDomain(),
		Allocations:   allocations,
		CreatedTick:   kernel.Tick(dto.CreatedTick),
		ETATick:       kernel.Tick(dto.ETATick),
		DepartureTick: columns.ToOptionalTick(dto.DepartureTick),
		ArrivalTick:   columns.ToOptionalTick(dto.ArrivalTick),
		Failure:       kernel.FailureReason(dto.Failure),
	})
}
