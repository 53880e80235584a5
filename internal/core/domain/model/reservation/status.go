package reservation

import (
	"fmt"

	"logistics/internal/pkg/errs"
)

// Status is the lifecycle state of a reservation.
//
//	Active ──> Committed ──> Released
//	   │                       ▲
//	   ├───────────────────────┘
//	   └──> Expired
type Status int

const (
	StatusUnknown Status = iota
	Active
	Committed
	Released
	Expired
)

var statusNames = map[Status]string{
	StatusUnknown: "Unknown",
	Active:        "Active",
	Committed:     "Committed",
	Released:      "Released",
	Expired:       "Expired",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "Unknown"
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok || s == StatusUnknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// IsHeld reports whether the reservation still blocks the capacity it covers.
func (s Status) IsHeld() bool {
	return s == Active || s == Committed
}

// Kind says what a reservation holds.
type Kind int

const (
	KindUnknown Kind = iota
	Inventory
	Capacity
	Service
)

func (k Kind) String() string {
	switch k {
	case Inventory:
		return "Inventory"
	case Capacity:
		return "Capacity"
	case Service:
		return "Service"
	default:
		return "Unknown"
	}
}
