package order

import (
	"errors"
	"fmt"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrShipmentAlreadyBound is returned when a second shipment is linked to an order.
	ErrShipmentAlreadyBound = errors.New("order already references a shipment")
)

// Request describes the demand an Order is created for.
type Request struct {
	Kind        Kind
	Priority    Priority
	Source      kernel.UUID
	Destination kernel.UUID

	// ResourceID is the catalog id of the moved resource; ResourceIndex caches its
	// resource-type index and is revalidated by the planner.
	ResourceID    string
	ResourceIndex int

	Amount      float64
	CreatedTick kernel.Tick
}

// Order is the aggregate root for one unit of demand: move Amount of ResourceID from the
// source node to the destination node.
//
// Order follows these invariants:
//   - Must have valid identifiers for itself and both endpoints
//   - Source and destination differ
//   - Requested amount is positive
//   - Status transitions follow the state machine in Status
//   - Once a shipment is linked it is never replaced
type Order struct {
	id          kernel.UUID
	kind        Kind
	priority    Priority
	status      Status
	source      kernel.UUID
	destination kernel.UUID

	resourceID    string
	resourceIndex int

	requested float64
	reserved  float64

	// transportID and shipmentID are set together by Dispatch.
	transportID *kernel.UUID
	shipmentID  *kernel.UUID

	// mergedInto points at the canonical order this order was consolidated into.
	mergedInto *kernel.UUID

	failure     kernel.FailureReason
	createdTick kernel.Tick

	guard guard.ConstructorGuard
}

// NewOrder creates an Order in Created status.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), order.Request{
//	    Kind:        order.KindSupply,
//	    Priority:    order.PriorityHigh,
//	    Source:      warehouseID,
//	    Destination: siteID,
//	    ResourceID:  "wood",
//	    Amount:      100,
//	    CreatedTick: now,
//	})
func NewOrder(id kernel.UUID, req Request) (*Order, error) {
	o := &Order{
		status:        Created,
		kind:          req.Kind,
		priority:      req.Priority,
		resourceIndex: req.ResourceIndex,
		createdTick:   req.CreatedTick,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setEndpoints(req.Source, req.Destination),
		o.setResource(req.ResourceID),
		o.setRequested(req.Amount),
		o.setKind(req.Kind),
		o.setPriority(req.Priority),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by their identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID               { return o.id }
func (o *Order) Kind() Kind                    { return o.kind }
func (o *Order) Priority() Priority            { return o.priority }
func (o *Order) Status() Status                { return o.status }
func (o *Order) Source() kernel.UUID           { return o.source }
func (o *Order) Destination() kernel.UUID      { return o.destination }
func (o *Order) ResourceID() string            { return o.resourceID }
func (o *Order) ResourceIndex() int            { return o.resourceIndex }
func (o *Order) Requested() float64            { return o.requested }
func (o *Order) Reserved() float64             { return o.reserved }
func (o *Order) Failure() kernel.FailureReason { return o.failure }
func (o *Order) CreatedTick() kernel.Tick      { return o.createdTick }
func (o *Order) IsTerminal() bool              { return o.status.IsTerminal() }
func (o *Order) Transport() *kernel.UUID       { return o.transportID }
func (o *Order) Shipment() *kernel.UUID        { return o.shipmentID }
func (o *Order) MergedInto() *kernel.UUID      { return o.mergedInto }
func (o *Order) ConsolidationKey() ConsolidationKey {
	return ConsolidationKey{Source: o.source, Destination: o.destination, ResourceIndex: o.resourceIndex}
}

// ConsolidationKey groups orders the planner may merge into one.
type ConsolidationKey struct {
	Source        kernel.UUID
	Destination   kernel.UUID
	ResourceIndex int
}

// Before reports whether o was created before other. Creation tick decides first, the
// time-ordered id breaks ties.
func (o *Order) Before(other *Order) bool {
	if o.createdTick != other.createdTick {
		return o.createdTick < other.createdTick
	}
	return o.id.Compare(other.id) < 0
}

// RefreshResourceIndex replaces a stale resource-type index while the order is still
// Created, so consolidation groups orders by the index resolved against the live catalog.
func (o *Order) RefreshResourceIndex(resourceIndex int) error {
	if resourceIndex < 0 {
		return errs.NewValueIsInvalidErrorWithCause("resource index", fmt.Errorf("%d is negative", resourceIndex))
	}
	if o.status != Created {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s order cannot change its resource index", o.status))
	}
	o.resourceIndex = resourceIndex
	return nil
}

// BeginPlanning moves a Created order to Planning and stores the resource-type index the
// planner resolved against the live catalog.
func (o *Order) BeginPlanning(resourceIndex int) error {
	if resourceIndex < 0 {
		return errs.NewValueIsInvalidErrorWithCause("resource index", fmt.Errorf("%d is negative", resourceIndex))
	}
	newStatus, err := o.status.Plan()
	if err != nil {
		return err
	}
	o.status = newStatus
	o.resourceIndex = resourceIndex
	return nil
}

// Absorb merges other into o: the requested amounts are summed and other is cancelled with
// its merged-into reference pointing at o. Both orders must be Created and share the same
// consolidation key.
func (o *Order) Absorb(other *Order) error {
	if other == nil || o.IsEqual(other) {
		return errs.NewValueIsInvalidError("merged order")
	}
	if o.status != Created {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s order cannot absorb another order", o.status))
	}
	if o.ConsolidationKey() != other.ConsolidationKey() {
		return errs.NewValueIsInvalidErrorWithCause("merged order",
			errors.New("orders differ in source, destination or resource type"))
	}

	newStatus, err := other.status.Cancel()
	if err != nil {
		return err
	}
	canonical := o.id
	other.status = newStatus
	other.mergedInto = &canonical
	o.requested += other.requested
	return nil
}

// Reserve records the amount held at the source and moves the order to Reserved.
func (o *Order) Reserve(amount float64) error {
	if amount <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("amount is invalid", fmt.Errorf("%g is not greater than 0", amount))
	}
	newStatus, err := o.status.Reserve()
	if err != nil {
		return err
	}
	o.status = newStatus
	o.reserved = amount
	return nil
}

// Dispatch binds the order to a transport and a shipment and moves it to Dispatched.
//
// Returns ErrShipmentAlreadyBound if a different shipment was linked before.
func (o *Order) Dispatch(transportID, shipmentID kernel.UUID) error {
	if err := errors.Join(transportID.Validate(), shipmentID.Validate()); err != nil {
		return err
	}
	if o.shipmentID != nil && !o.shipmentID.IsEqual(shipmentID) {
		return ErrShipmentAlreadyBound
	}
	newStatus, err := o.status.Dispatch()
	if err != nil {
		return err
	}
	o.status = newStatus
	o.transportID = &transportID
	o.shipmentID = &shipmentID
	return nil
}

// Deliver marks a Dispatched order as Delivered.
func (o *Order) Deliver() error {
	newStatus, err := o.status.Deliver()
	if err != nil {
		return err
	}
	o.status = newStatus
	return nil
}

// Fail moves a non-terminal order to Failed with the given reason.
func (o *Order) Fail(reason kernel.FailureReason) error {
	if reason == kernel.FailureNone || !reason.Valid() {
		return errs.NewValueIsInvalidErrorWithCause("failure reason", fmt.Errorf("%d is not a failure reason", reason))
	}
	newStatus, err := o.status.Fail()
	if err != nil {
		return err
	}
	o.status = newStatus
	o.failure = reason
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setEndpoints(source, destination kernel.UUID) error {
	if err := errors.Join(source.Validate(), destination.Validate()); err != nil {
		return err
	}
	if source.IsEqual(destination) {
		return errs.NewValueIsInvalidErrorWithCause("destination is invalid", errors.New("source and destination are the same node"))
	}
	o.source = source
	o.destination = destination
	return nil
}

func (o *Order) setResource(resourceID string) error {
	if resourceID == "" {
		return errs.NewValueIsRequiredError("resource id")
	}
	o.resourceID = resourceID
	return nil
}

func (o *Order) setRequested(amount float64) error {
	if !(amount > 0) {
		return errs.NewValueIsInvalidErrorWithCause("amount is invalid", fmt.Errorf("%g is not greater than 0", amount))
	}
	o.requested = amount
	return nil
}

func (o *Order) setKind(kind Kind) error {
	switch kind {
	case KindSupply, KindRedeployStock, KindManual:
		return nil
	default:
		return errs.NewValueIsRequiredError("order kind")
	}
}

func (o *Order) setPriority(priority Priority) error {
	if priority < PriorityLow || priority > PriorityHigh {
		return errs.NewValueIsOutOfRangeError("priority", priority, PriorityLow, PriorityHigh)
	}
	return nil
}
