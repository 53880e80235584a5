package shipment

import (
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/pkg/guard"
)

// State is a flat snapshot of a Shipment.
type State struct {
	ID            kernel.UUID
	Status        Status
	Mode          Mode
	TransportID   *kernel.UUID
	RouteID       *kernel.UUID
	Source        kernel.UUID
	Destination   kernel.UUID
	Profile       route.Profile
	Allocations   []Allocation
	CreatedTick   kernel.Tick
	ETATick       kernel.Tick
	DepartureTick *kernel.Tick
	ArrivalTick   *kernel.Tick
	Failure       kernel.FailureReason
}

func (s *Shipment) State() State {
	return State{
		ID:            s.id,
		Status:        s.status,
		Mode:          s.mode,
		TransportID:   copyID(s.transportID),
		RouteID:       copyID(s.routeID),
		Source:        s.source,
		Destination:   s.destination,
		Profile:       s.profile,
		Allocations:   s.Allocations(),
		CreatedTick:   s.createdTick,
		ETATick:       s.etaTick,
		DepartureTick: copyTick(s.departureTick),
		ArrivalTick:   copyTick(s.arrivalTick),
		Failure:       s.failure,
	}
}

// RestoreShipment rebuilds a Shipment from a persisted snapshot.
func RestoreShipment(st State) (*Shipment, error) {
	s := &Shipment{
		id:            st.ID,
		status:        st.Status,
		mode:          st.Mode,
		transportID:   copyID(st.TransportID),
		routeID:       copyID(st.RouteID),
		source:        st.Source,
		destination:   st.Destination,
		profile:       st.Profile,
		allocations:   append([]Allocation(nil), st.Allocations...),
		createdTick:   st.CreatedTick,
		etaTick:       st.ETATick,
		departureTick: copyTick(st.DepartureTick),
		arrivalTick:   copyTick(st.ArrivalTick),
		failure:       st.Failure,
		guard:         guard.NewConstructorGuard(),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := st.Status.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
