// Package routerepo persists the route cache. A route's key is stored as plain columns so
// cache lookups are a single indexed query.
package routerepo

import (
	"errors"

	"logistics/internal/adapters/out/postgres/columns"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/route"

	"github.com/google/uuid"
)

type RouteDTO struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	SourceID         uuid.UUID `gorm:"type:uuid;not null;index:idx_routes_key"`
	DestinationID    uuid.UUID `gorm:"type:uuid;not null;index:idx_routes_key"`
	RiskTolerance    float64   `gorm:"not null"`
	AllowRestricted  bool      `gorm:"not null"`
	RequireSecrecy   bool      `gorm:"not null"`
	RequiredServices uint8     `gorm:"not null"`
	Distance         float64   `gorm:"not null"`
	Cost             float64   `gorm:"not null"`
	TransitTicks     uint64    `gorm:"not null"`
	Status           int       `gorm:"not null;index"`
	ComputedTick     uint64    `gorm:"not null"`
	ExpiryTick       uint64    `gorm:"not null"`
}

func (RouteDTO) TableName() string {
	return "routes"
}

func fromDomain(r *route.Route) RouteDTO {
	s := r.State()
	return RouteDTO{
		ID:               columns.ID(s.ID),
		SourceID:         columns.ID(s.Key.Source),
		DestinationID:    columns.ID(s.Key.Destination),
		RiskTolerance:    s.Key.Profile.RiskTolerance,
		AllowRestricted:  s.Key.Profile.AllowRestricted,
		RequireSecrecy:   s.Key.Profile.RequireSecrecy,
		RequiredServices: uint8(s.Key.Profile.RequiredServices),
		Distance:         s.Estimate.Distance,
		Cost:             s.Estimate.Cost,
		TransitTicks:     s.Estimate.TransitTicks,
		Status:           int(s.Status),
		ComputedTick:     uint64(s.ComputedTick),
		ExpiryTick:       uint64(s.ExpiryTick),
	}
}

func toDomain(dto RouteDTO) (*route.Route, error) {
	id, idErr := columns.ToID(dto.ID)
	source, sourceErr := columns.ToID(dto.SourceID)
	destination, destinationErr := columns.ToID(dto.DestinationID)
	if err := errors.Join(idErr, sourceErr, destinationErr); err != nil {
		return nil, err
	}

	return route.RestoreRoute(route.State{
		ID: id,
		Key: route.Key{
			Source:      source,
			Destination: destination,
			Profile: route.Profile{
				RiskTolerance:    dto.RiskTolerance,
				AllowRestricted:  dto.AllowRestricted,
				RequireSecrecy:   dto.RequireSecrecy,
				RequiredServices: node.ServiceFlags(dto.RequiredServices),
			},
		},
		Estimate: route.Estimate{
			Distance:     dto.Distance,
			Cost:         dto.Cost,
			TransitTicks: dto.TransitTicks,
		},
		Status:       route.Status(dto.Status),
		ComputedTick: kernel.Tick(dto.ComputedTick),
		ExpiryTick:   kernel.Tick(dto.ExpiryTick),
	})
}
