package shipment

import (
	"fmt"

	"logistics/internal/pkg/errs"
)

type Status int

const (
	StatusUnknown Status = iota
	Created
	Loading
	InTransit
	Rerouting
	Unloading
	Delivered
	Failed
)

var statusNames = map[Status]string{
	StatusUnknown: "Unknown",
	Created:       "Created",
	Loading:       "Loading",
	InTransit:     "InTransit",
	Rerouting:     "Rerouting",
	Unloading:     "Unloading",
	Delivered:     "Delivered",
	Failed:        "Failed",
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

// ParseStatus maps a status name back to its value.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name && s != StatusUnknown {
			return s, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", name))
}

func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed
}

// IsMoving reports whether the shipment has departed and not yet arrived.
func (s Status) IsMoving() bool {
	return s == InTransit || s == Rerouting
}

func (s Status) transition(to Status, from ...Status) (Status, error) {
	for _, f := range from {
		if s == f {
			return to, nil
		}
	}
	return 0, errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%s is not a valid status to move to %s", s, to),
	)
}

// Mode is the representation of a shipment.
type Mode int

const (
	ModeUnknown Mode = iota
	// Abstract shipments are driven by time alone.
	Abstract
	// Physical shipments are bound to a movable transport.
	Physical
)

func (m Mode) String() string {
	switch m {
	case Abstract:
		return "Abstract"
	case Physical:
		return "Physical"
	default:
		return "Unknown"
	}
}
