// Package reservationrepo persists inventory, capacity and service holds in one table.
package reservationrepo

import (
	"errors"

	"logistics/internal/adapters/out/postgres/columns"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/reservation"

	"github.com/google/uuid"
)

// ReservationDTO is one hold. HolderID is the node for inventory and service holds and the
// transport for capacity holds; the unused amount columns stay zero.
type ReservationDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind            int       `gorm:"not null"`
	Status          int       `gorm:"not null;index"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index"`
	HolderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	ResourceID      string    `gorm:"type:varchar(64)"`
	Amount          float64
	CommittedAmount float64
	Mass            float64
	Volume          float64
	Service         int
	CreatedTick     uint64 `gorm:"not null;index"`
	ExpiryTick      uint64 `gorm:"not null"`
}

func (ReservationDTO) TableName() string {
	return "reservations"
}

func fromDomain(r *reservation.Reservation) ReservationDTO {
	s := r.State()
	return ReservationDTO{
		ID:              columns.ID(s.ID),
		Kind:            int(s.Kind),
		Status:          int(s.Status),
		OrderID:         columns.ID(s.OrderID),
		HolderID:        columns.ID(s.HolderID),
		ResourceID:      s.ResourceID,
		Amount:          s.Amount,
		CommittedAmount: s.CommittedAmount,
		Mass:            s.Mass,
		Volume:          s.Volume,
		Service:         int(s.Service),
		CreatedTick:     uint64(s.CreatedTick),
		ExpiryTick:      uint64(s.ExpiryTick),
	}
}

func toDomain(dto ReservationDTO) (*reservation.Reservation, error) {
	id, idErr := columns.ToID(dto.ID)
	orderID, orderErr := columns.ToID(dto.OrderID)
	holderID, holderErr := columns.ToID(dto.HolderID)
	if err := errors.Join(idErr, orderErr, holderErr); err != nil {
		return nil, err
	}

	return reservation.RestoreReservation(reservation.State{
		ID:              id,
		Kind:            reservation.Kind(dto.Kind),
		Status:          reservation.Status(dto.Status),
		OrderID:         orderID,
		HolderID:        holderID,
		ResourceID:      dto.ResourceID,
		Amount:          dto.Amount,
		CommittedAmount: dto.CommittedAmount,
		Mass:            dto.Mass,
		Volume:          dto.Volume,
		Service:         node.ServiceType(dto.Service),
		CreatedTick:     kernel.Tick(dto.CreatedTick),
		ExpiryTick:      kernel.Tick(dto.ExpiryTick),
	})
}

func toDomainList(dtos []ReservationDTO) ([]*reservation.Reservation, error) {
	out := make([]*reservation.Reservation, 0, len(dtos))
	for _, dto := range dtos {
		r, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
