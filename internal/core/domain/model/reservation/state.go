package reservation

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/pkg/guard"
)

// State is a flat snapshot of a Reservation.
type State struct {
	ID              kernel.UUID
	Kind            Kind
	Status          Status
	OrderID         kernel.UUID
	HolderID        kernel.UUID
	ResourceID      string
	Amount          float64
	CommittedAmount float64
	Mass            float64
	Volume          float64
	Service         node.ServiceType
	CreatedTick     kernel.Tick
	ExpiryTick      kernel.Tick
}

func (r *Reservation) State() State {
	return State{
		ID:              r.id,
		Kind:            r.kind,
		Status:          r.status,
		OrderID:         r.orderID,
		HolderID:        r.holderID,
		ResourceID:      r.resourceID,
		Amount:          r.amount,
		CommittedAmount: r.committed,
		Mass:            r.mass,
		Volume:          r.volume,
		Service:         r.service,
		CreatedTick:     r.createdTick,
		ExpiryTick:      r.expiryTick,
	}
}

// RestoreReservation rebuilds a Reservation from a persisted snapshot.
func RestoreReservation(s State) (*Reservation, error) {
	var kindErr error
	if s.Kind < Inventory || s.Kind > Service {
		kindErr = errors.New("reservation kind is invalid")
	}
	if err := errors.Join(s.ID.Validate(), s.OrderID.Validate(), s.HolderID.Validate(), s.Status.Validate(), kindErr); err != nil {
		return nil, err
	}
	return &Reservation{
		id:          s.ID,
		kind:        s.Kind,
		status:      s.Status,
		orderID:     s.OrderID,
		holderID:    s.HolderID,
		resourceID:  s.ResourceID,
		amount:      s.Amount,
		committed:   s.CommittedAmount,
		mass:        s.Mass,
		volume:      s.Volume,
		service:     s.Service,
		createdTick: s.CreatedTick,
		expiryTick:  s.ExpiryTick,
		guard:       guard.NewConstructorGuard(),
	}, nil
}
