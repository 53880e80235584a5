package reservation

import (
	"errors"
	"fmt"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

var (
	ErrReservationIsNotConstructed = errors.New("Reservation must be created via a New* constructor")

	// ErrExceedsFreeCapacity is returned when a capacity hold would oversubscribe a transport.
	ErrExceedsFreeCapacity = errors.New("requested capacity exceeds transport free capacity")
)

// Reservation is a time-bounded hold owned by one order.
type Reservation struct {
	id      kernel.UUID
	kind    Kind
	status  Status
	orderID kernel.UUID

	// holderID is the node for Inventory and Service holds, the transport for Capacity.
	holderID kernel.UUID

	resourceID string
	amount     float64
	committed  float64

	mass   float64
	volume float64

	service node.ServiceType

	createdTick kernel.Tick
	expiryTick  kernel.Tick

	guard guard.ConstructorGuard
}

// NewInventory holds amount of resourceID at the source node for ttl ticks.
func NewInventory(id, orderID, nodeID kernel.UUID, resourceID string, amount float64, now kernel.Tick, ttl uint64) (*Reservation, error) {
	r := newReservation(id, Inventory, orderID, nodeID, now, ttl)
	r.resourceID = resourceID
	r.amount = amount

	var resourceErr, amountErr error
	if resourceID == "" {
		resourceErr = errs.NewValueIsRequiredError("resource id")
	}
	if !(amount > 0) {
		amountErr = errs.NewValueIsInvalidErrorWithCause("amount is invalid", fmt.Errorf("%g is not greater than 0", amount))
	}

	if err := errors.Join(r.validateCommon(ttl), resourceErr, amountErr); err != nil {
		return nil, err
	}
	return r, nil
}

// NewCapacity holds mass and volume on a transport. freeMass and freeVolume are the
// transport's maximum minus every other Active capacity hold; the request must fit in both.
func NewCapacity(
	id, orderID, transportID kernel.UUID,
	mass, volume float64,
	freeMass, freeVolume float64,
	now kernel.Tick, ttl uint64,
) (*Reservation, error) {
	r := newReservation(id, Capacity, orderID, transportID, now, ttl)
	r.mass = mass
	r.volume = volume

	var sizeErr error
	if mass < 0 || volume < 0 || (mass == 0 && volume == 0) {
		sizeErr = errs.NewValueIsInvalidErrorWithCause("capacity is invalid",
			fmt.Errorf("mass %g and volume %g must be non-negative and not both zero", mass, volume))
	}
	if err := errors.Join(r.validateCommon(ttl), sizeErr); err != nil {
		return nil, err
	}
	if mass > freeMass || volume > freeVolume {
		return nil, fmt.Errorf("%w: need %g kg / %g m³, free %g kg / %g m³",
			ErrExceedsFreeCapacity, mass, volume, freeMass, freeVolume)
	}
	return r, nil
}

// NewService holds one Load or Unload slot at a node.
func NewService(id, orderID, nodeID kernel.UUID, service node.ServiceType, now kernel.Tick, ttl uint64) (*Reservation, error) {
	r := newReservation(id, Service, orderID, nodeID, now, ttl)
	r.service = service

	var serviceErr error
	if service != node.ServiceLoad && service != node.ServiceUnload {
		serviceErr = errs.NewValueIsRequiredError("service type")
	}
	if err := errors.Join(r.validateCommon(ttl), serviceErr); err != nil {
		return nil, err
	}
	return r, nil
}

func newReservation(id kernel.UUID, kind Kind, orderID, holderID kernel.UUID, now kernel.Tick, ttl uint64) *Reservation {
	return &Reservation{
		id:          id,
		kind:        kind,
		status:      Active,
		orderID:     orderID,
		holderID:    holderID,
		createdTick: now,
		expiryTick:  now.Add(ttl),
		guard:       guard.NewConstructorGuard(),
	}
}

func (r *Reservation) validateCommon(ttl uint64) error {
	var ttlErr error
	if ttl == 0 {
		ttlErr = errs.NewValueIsInvalidErrorWithCause("ttl is invalid", errors.New("0 is not greater than 0"))
	}
	return errors.Join(r.id.Validate(), r.orderID.Validate(), r.holderID.Validate(), ttlErr)
}

func (r *Reservation) Validate() error {
	if r == nil {
		return ErrReservationIsNotConstructed
	}
	return r.guard.Validate(ErrReservationIsNotConstructed)
}

func (r *Reservation) ID() kernel.UUID               { return r.id }
func (r *Reservation) Kind() Kind                    { return r.kind }
func (r *Reservation) Status() Status                { return r.status }
func (r *Reservation) OrderID() kernel.UUID          { return r.orderID }
func (r *Reservation) HolderID() kernel.UUID         { return r.holderID }
func (r *Reservation) ResourceID() string            { return r.resourceID }
func (r *Reservation) Amount() float64               { return r.amount }
func (r *Reservation) CommittedAmount() float64      { return r.committed }
func (r *Reservation) Mass() float64                 { return r.mass }
func (r *Reservation) Volume() float64               { return r.volume }
func (r *Reservation) ServiceType() node.ServiceType { return r.service }
func (r *Reservation) CreatedTick() kernel.Tick      { return r.createdTick }
func (r *Reservation) ExpiryTick() kernel.Tick       { return r.expiryTick }
func (r *Reservation) IsActive() bool                { return r.status == Active }

// Commit records the amount actually withdrawn for an Active inventory hold. A reservation
// can be committed once.
func (r *Reservation) Commit(amount float64) error {
	if r.kind != Inventory {
		return errs.NewValueIsInvalidErrorWithCause("kind is invalid", fmt.Errorf("%s reservation cannot be committed", r.kind))
	}
	if r.status != Active {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%s reservation cannot be committed", r.status))
	}
	if !(amount > 0) || amount > r.amount {
		return errs.NewValueIsOutOfRangeError("committed amount", amount, 0, r.amount)
	}
	r.status = Committed
	r.committed = amount
	return nil
}

// Release frees the hold. Releasing a Released or Expired reservation is a no-op, so
// failure paths can release every hold of an order without checking state first.
func (r *Reservation) Release() {
	if r.status.IsHeld() {
		r.status = Released
	}
}

// ExpireAt marks an Active reservation Expired once now is past its expiry tick and
// reports whether it changed.
func (r *Reservation) ExpireAt(now kernel.Tick) bool {
	if r.status != Active || !now.After(r.expiryTick) {
		return false
	}
	r.status = Expired
	return true
}

// IsDisposable reports whether the reservation can be destroyed.
func (r *Reservation) IsDisposable() bool {
	return r.status == Released || r.status == Expired
}
