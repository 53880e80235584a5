package kernel

import (
	"fmt"
	"math"

	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation")

// Location is an immutable point in world space. Routes are straight-line estimates, so
// the only geometry needed is Euclidean distance.
//
//	warehouse, _ := kernel.NewLocation(0, 0, 0)
//	site, _ := kernel.NewLocation(30, 40, 0)
//	d, _ := warehouse.DistanceTo(site) // 50
type Location struct { //nolint:recvcheck //using for validation
	x     float64
	y     float64
	z     float64
	guard guard.ConstructorGuard
}

// NewLocation creates a Location. Coordinates must be finite.
func NewLocation(x, y, z float64) (Location, error) {
	for name, v := range map[string]float64{"x": x, "y": y, "z": z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Location{}, errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%v is not finite", v))
		}
	}

	return Location{x: x, y: y, z: z, guard: guard.NewConstructorGuard()}, nil
}

// MustNewLocation is NewLocation for fixtures; it panics on invalid input.
func MustNewLocation(x, y, z float64) Location {
	loc, err := NewLocation(x, y, z)
	if err != nil {
		panic(err)
	}
	return loc
}

// Validate reports whether the location was built by NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) X() float64 { return l.x }
func (l Location) Y() float64 { return l.y }
func (l Location) Z() float64 { return l.z }

// String implements fmt.Stringer.
func (l Location) String() string {
	return fmt.Sprintf("Location(%g,%g,%g)", l.x, l.y, l.z)
}

// DistanceTo returns the Euclidean distance between two locations.
func (l Location) DistanceTo(other Location) (float64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	if err := other.Validate(); err != nil {
		return 0, err
	}

	dx, dy, dz := l.x-other.x, l.y-other.y, l.z-other.z
	return math.Sqrt(dx*dx + dy*dy + dz*dz), nil
}

// Within reports whether other lies strictly closer than radius.
func (l Location) Within(other Location, radius float64) (bool, error) {
	d, err := l.DistanceTo(other)
	if err != nil {
		return false, err
	}
	return d < radius, nil
}
