package order

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/guard"
)

// State is a flat snapshot of an Order used by repositories to persist and clone it.
type State struct {
	ID            kernel.UUID
	Kind          Kind
	Priority      Priority
	Status        Status
	Source        kernel.UUID
	Destination   kernel.UUID
	ResourceID    string
	ResourceIndex int
	Requested     float64
	Reserved      float64
	TransportID   *kernel.UUID
	ShipmentID    *kernel.UUID
	MergedInto    *kernel.UUID
	Failure       kernel.FailureReason
	CreatedTick   kernel.Tick
}

// State returns a snapshot that shares no memory with o.
func (o *Order) State() State {
	return State{
		ID:            o.id,
		Kind:          o.kind,
		Priority:      o.priority,
		Status:        o.status,
		Source:        o.source,
		Destination:   o.destination,
		ResourceID:    o.resourceID,
		ResourceIndex: o.resourceIndex,
		Requested:     o.requested,
		Reserved:      o.reserved,
		TransportID:   copyID(o.transportID),
		ShipmentID:    copyID(o.shipmentID),
		MergedInto:    copyID(o.mergedInto),
		Failure:       o.failure,
		CreatedTick:   o.createdTick,
	}
}

// RestoreOrder rebuilds an Order from a persisted snapshot.
func RestoreOrder(s State) (*Order, error) {
	o := &Order{
		status:        s.Status,
		kind:          s.Kind,
		priority:      s.Priority,
		resourceIndex: s.ResourceIndex,
		reserved:      s.Reserved,
		transportID:   copyID(s.TransportID),
		shipmentID:    copyID(s.ShipmentID),
		mergedInto:    copyID(s.MergedInto),
		failure:       s.Failure,
		createdTick:   s.CreatedTick,
		guard:         guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		o.setID(s.ID),
		o.setEndpoints(s.Source, s.Destination),
		o.setResource(s.ResourceID),
		o.setRequested(s.Requested),
		o.setKind(s.Kind),
		o.setPriority(s.Priority),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	return o, nil
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
