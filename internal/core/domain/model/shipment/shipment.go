package shipment

import (
	"errors"
	"fmt"
	"math"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

var (
	ErrShipmentIsNotConstructed = errors.New("Shipment must be created via NewShipment constructor")
	ErrAllocationNotFound       = errors.New("shipment has no allocation for the order")
)

// Allocation is the share of the cargo that belongs to one order.
type Allocation struct {
	OrderID    kernel.UUID
	ResourceID string
	Requested  float64
	// Actual is the amount withdrawn at the source; zero until the shipment departs.
	Actual float64
	// ContainerSlot is the transport slot the cargo rides in, empty for bulk cargo.
	ContainerSlot string
}

// Params describes a new shipment.
type Params struct {
	TransportID *kernel.UUID
	Source      kernel.UUID
	Destination kernel.UUID
	Mode        Mode
	Profile     route.Profile
	Allocations []Allocation
	CreatedTick kernel.Tick
}

// Shipment is the aggregate root for one movement of cargo.
type Shipment struct {
	id          kernel.UUID
	status      Status
	mode        Mode
	transportID *kernel.UUID
	routeID     *kernel.UUID
	source      kernel.UUID
	destination kernel.UUID
	profile     route.Profile
	allocations []Allocation

	createdTick   kernel.Tick
	etaTick       kernel.Tick
	departureTick *kernel.Tick
	arrivalTick   *kernel.Tick

	failure kernel.FailureReason
	guard   guard.ConstructorGuard
}

// NewShipment creates a shipment in Created status. Physical shipments need a transport.
func NewShipment(id kernel.UUID, p Params) (*Shipment, error) {
	s := &Shipment{
		id:          id,
		status:      Created,
		mode:        p.Mode,
		transportID: copyID(p.TransportID),
		source:      p.Source,
		destination: p.Destination,
		profile:     p.Profile,
		allocations: append([]Allocation(nil), p.Allocations...),
		createdTick: p.CreatedTick,
		guard:       guard.NewConstructorGuard(),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Shipment) validate() error {
	var modeErr, transportErr, allocErr, endpointErr error
	switch s.mode {
	case Abstract:
	case Physical:
		if s.transportID == nil {
			transportErr = errs.NewValueIsRequiredError("transport")
		}
	default:
		modeErr = errs.NewValueIsRequiredError("mode")
	}
	if s.transportID != nil {
		transportErr = errors.Join(transportErr, s.transportID.Validate())
	}
	if len(s.allocations) == 0 {
		allocErr = errs.NewValueIsRequiredError("allocations")
	}
	for _, a := range s.allocations {
		if err := a.OrderID.Validate(); err != nil {
			allocErr = errors.Join(allocErr, err)
		}
		if a.ResourceID == "" || !(a.Requested > 0) {
			allocErr = errors.Join(allocErr, errs.NewValueIsInvalidErrorWithCause("allocation is invalid",
				fmt.Errorf("resource %q amount %g", a.ResourceID, a.Requested)))
		}
	}
	if s.source.IsEqual(s.destination) {
		endpointErr = errs.NewValueIsInvalidErrorWithCause("destination is invalid", errors.New("source and destination are the same node"))
	}
	return errors.Join(
		s.id.Validate(),
		s.source.Validate(),
		s.destination.Validate(),
		s.profile.Validate(),
		modeErr, transportErr, allocErr, endpointErr,
	)
}

func (s *Shipment) Validate() error {
	if s == nil {
		return ErrShipmentIsNotConstructed
	}
	return s.guard.Validate(ErrShipmentIsNotConstructed)
}

func (s *Shipment) ID() kernel.UUID               { return s.id }
func (s *Shipment) Status() Status                { return s.status }
func (s *Shipment) Mode() Mode                    { return s.mode }
func (s *Shipment) Transport() *kernel.UUID       { return s.transportID }
func (s *Shipment) Route() *kernel.UUID           { return s.routeID }
func (s *Shipment) Source() kernel.UUID           { return s.source }
func (s *Shipment) Destination() kernel.UUID      { return s.destination }
func (s *Shipment) Profile() route.Profile        { return s.profile }
func (s *Shipment) CreatedTick() kernel.Tick      { return s.createdTick }
func (s *Shipment) ETA() kernel.Tick              { return s.etaTick }
func (s *Shipment) DepartureTick() *kernel.Tick   { return s.departureTick }
func (s *Shipment) ArrivalTick() *kernel.Tick     { return s.arrivalTick }
func (s *Shipment) Failure() kernel.FailureReason { return s.failure }
func (s *Shipment) IsTerminal() bool              { return s.status.IsTerminal() }
func (s *Shipment) HasDeparted() bool             { return s.departureTick != nil }

// Allocations returns a copy of the cargo allocations.
func (s *Shipment) Allocations() []Allocation {
	return append([]Allocation(nil), s.allocations...)
}

// OrderIDs lists the orders carried by the shipment.
func (s *Shipment) OrderIDs() []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(s.allocations))
	for _, a := range s.allocations {
		ids = append(ids, a.OrderID)
	}
	return ids
}

// Carries reports whether orderID has an allocation on the shipment.
func (s *Shipment) Carries(orderID kernel.UUID) bool {
	_, err := s.allocationIndex(orderID)
	return err == nil
}

// BindRoute attaches the first route and sets the estimated arrival.
func (s *Shipment) BindRoute(routeID kernel.UUID, eta kernel.Tick) error {
	if err := routeID.Validate(); err != nil {
		return err
	}
	if s.routeID != nil {
		return errs.NewValueIsInvalidErrorWithCause("route is invalid", errors.New("shipment already has a route"))
	}
	if s.status.IsTerminal() {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%s shipment cannot be routed", s.status))
	}
	s.routeID = &routeID
	s.etaTick = eta
	return nil
}

// StartLoading moves Created -> Loading. A route must be bound.
func (s *Shipment) StartLoading() error {
	if s.routeID == nil {
		return errs.NewValueIsRequiredError("route")
	}
	newStatus, err := s.status.transition(Loading, Created)
	if err != nil {
		return err
	}
	s.status = newStatus
	return nil
}

// RecordWithdrawal stores the amount actually withdrawn for an order's allocation.
func (s *Shipment) RecordWithdrawal(orderID kernel.UUID, actual float64) error {
	if s.status != Loading {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%s shipment cannot load cargo", s.status))
	}
	i, err := s.allocationIndex(orderID)
	if err != nil {
		return err
	}
	if actual < 0 || actual > s.allocations[i].Requested {
		return errs.NewValueIsOutOfRangeError("withdrawn amount", actual, 0, s.allocations[i].Requested)
	}
	s.allocations[i].Actual = actual
	return nil
}

// Depart moves Loading -> InTransit, records the departure and re-bases the ETA on it.
func (s *Shipment) Depart(now kernel.Tick, transitTicks uint64) error {
	newStatus, err := s.status.transition(InTransit, Loading)
	if err != nil {
		return err
	}
	s.status = newStatus
	departed := now
	s.departureTick = &departed
	s.etaTick = now.Add(transitTicks)
	return nil
}

// Reroute swaps in a replacement route and moves the shipment to Rerouting.
func (s *Shipment) Reroute(routeID kernel.UUID, eta kernel.Tick) error {
	if err := routeID.Validate(); err != nil {
		return err
	}
	newStatus, err := s.status.transition(Rerouting, InTransit, Rerouting)
	if err != nil {
		return err
	}
	s.status = newStatus
	s.routeID = &routeID
	s.etaTick = eta
	return nil
}

// BeginUnloading moves an arrived shipment to Unloading.
func (s *Shipment) BeginUnloading() error {
	newStatus, err := s.status.transition(Unloading, InTransit, Rerouting)
	if err != nil {
		return err
	}
	s.status = newStatus
	return nil
}

// Deliver moves Unloading -> Delivered and records the actual arrival.
func (s *Shipment) Deliver(now kernel.Tick) error {
	newStatus, err := s.status.transition(Delivered, Unloading)
	if err != nil {
		return err
	}
	s.status = newStatus
	arrived := now
	s.arrivalTick = &arrived
	return nil
}

// Fail moves a non-terminal shipment to Failed.
func (s *Shipment) Fail(reason kernel.FailureReason) error {
	if reason == kernel.FailureNone || !reason.Valid() {
		return errs.NewValueIsInvalidErrorWithCause("failure reason", fmt.Errorf("%d is not a failure reason", reason))
	}
	if s.status.IsTerminal() {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%s is not a valid status to fail", s.status))
	}
	s.status = Failed
	s.failure = reason
	return nil
}

// DeliverableAmount is the withdrawn amount for the order, capped at what it requested.
func (s *Shipment) DeliverableAmount(orderID kernel.UUID) (float64, error) {
	i, err := s.allocationIndex(orderID)
	if err != nil {
		return 0, err
	}
	return math.Min(s.allocations[i].Actual, s.allocations[i].Requested), nil
}

func (s *Shipment) allocationIndex(orderID kernel.UUID) (int, error) {
	for i, a := range s.allocations {
		if a.OrderID.IsEqual(orderID) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrAllocationNotFound, orderID)
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTick(t *kernel.Tick) *kernel.Tick {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
