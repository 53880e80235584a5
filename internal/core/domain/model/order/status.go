package order

import (
	"fmt"

	"logistics/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	Created ──> Planning ──> Reserved ──> Dispatched ──> Delivered
//	   │           │            │             │
//	   │           └────────────┴─────────────┴──> Failed
//	   ├──> Failed
//	   └──> Cancelled (merged into another order)
//
// Delivered, Failed and Cancelled are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Created orders wait for the planner.
	Created

	// Planning orders passed validation and wait for an inventory hold.
	Planning

	// Reserved orders hold inventory at their source and wait for a carrier.
	Reserved

	// Dispatched orders are bound to a transport and a shipment.
	Dispatched

	// Delivered orders were settled at their destination.
	Delivered

	// Failed orders carry a failure reason.
	Failed

	// Cancelled orders were merged into a canonical order by consolidation.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		Created:    "Created",
		Planning:   "Planning",
		Reserved:   "Reserved",
		Dispatched: "Dispatched",
		Delivered:  "Delivered",
		Failed:     "Failed",
		Cancelled:  "Cancelled",
	}
}

// Validate checks that s is a declared status other than Unknown.
func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// ParseStatus maps a status name back to its value.
func ParseStatus(name string) (Status, error) {
	for s, str := range getStatusStrings() {
		if str == name && s != Unknown {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", name))
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed || s == Cancelled
}

// Plan transitions Created -> Planning.
func (s Status) Plan() (Status, error) {
	return s.transition(Planning, Created)
}

// Reserve transitions Planning -> Reserved.
func (s Status) Reserve() (Status, error) {
	return s.transition(Reserved, Planning)
}

// Dispatch transitions Reserved -> Dispatched.
func (s Status) Dispatch() (Status, error) {
	return s.transition(Dispatched, Reserved)
}

// Deliver transitions Dispatched -> Delivered.
func (s Status) Deliver() (Status, error) {
	return s.transition(Delivered, Dispatched)
}

// Cancel transitions Created -> Cancelled.
func (s Status) Cancel() (Status, error) {
	return s.transition(Cancelled, Created)
}

// Fail transitions any non-terminal status to Failed.
func (s Status) Fail() (Status, error) {
	if s == Unknown || s.IsTerminal() {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to fail", s),
		)
	}
	return Failed, nil
}

func (s Status) transition(to Status, from Status) (Status, error) {
	if s != from {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to move to %s", s, to),
		)
	}
	return to, nil
}

// Kind records which demand class produced the order.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSupply orders feed construction sites.
	KindSupply
	// KindRedeployStock orders restock under-filled storehouses.
	KindRedeployStock
	// KindManual orders were injected by an operator.
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindSupply:
		return "Supply"
	case KindRedeployStock:
		return "RedeployStock"
	case KindManual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// Priority orders competing demand; higher values are more urgent.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 10
)
