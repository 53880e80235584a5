package services

import (
	"errors"
	"math"

	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/transport"
	"logistics/internal/pkg/errs"
)

var (
	// ErrNoCarrier is returned when no candidate transport was offered at all.
	ErrNoCarrier = errors.New("no carrier available")

	// ErrNoCapacity is returned when candidates exist but none can take the cargo.
	ErrNoCapacity = errors.New("no carrier has enough free capacity")
)

// Requirement is the space a cargo needs on a transport.
type Requirement struct {
	Mass   float64
	Volume float64
	// ContainerTag is the slot type the cargo must ride in, empty for bulk cargo.
	ContainerTag string
}

// RequirementFor scales a per-unit item spec to amount units.
func RequirementFor(spec catalog.ItemSpec, amount float64) Requirement {
	return Requirement{
		Mass:         spec.Mass * amount,
		Volume:       spec.Volume * amount,
		ContainerTag: spec.ContainerTag,
	}
}

// Candidate is a transport together with its free capacity, which is its maximum minus
// the mass and volume of its Active capacity reservations.
type Candidate struct {
	Transport  *transport.Transport
	FreeMass   float64
	FreeVolume float64
}

// Selection is the chosen transport and the container slot the cargo is assigned to.
type Selection struct {
	Transport *transport.Transport
	Slot      transport.ContainerSlot
	// Score is the larger of the remaining mass and volume fractions after loading.
	Score float64
}

// TransportSelector is a domain service that matches a cargo requirement to the carrier
// that leaves the least unused capacity, which keeps large carriers free for large loads.
//
// Business rules:
//   - A candidate fits when its free mass AND free volume cover the requirement
//   - A candidate must expose a container slot with the required tag, if any
//   - The smallest max(remaining mass fraction, remaining volume fraction) wins
//   - Ties go to the earlier candidate
//
// Example usage:
//
//	selector := services.NewTransportSelector()
//	req := services.RequirementFor(woodSpec, 100)
//	sel, err := selector.Select(req, candidates)
//	switch {
//	case errors.Is(err, services.ErrNoCarrier):
//	    // fail the order with NoCarrier
//	case errors.Is(err, services.ErrNoCapacity):
//	    // fail the order with NoCapacity
//	}
type TransportSelector struct{}

// NewTransportSelector creates a new TransportSelector instance.
func NewTransportSelector() TransportSelector {
	return TransportSelector{}
}

// Select returns the tightest-fitting candidate.
//
// Returns:
//   - Selection: the chosen transport and container slot
//   - error: ErrNoCarrier for zero candidates, ErrNoCapacity when none fit, or a
//     validation error for a malformed requirement or candidate
func (s TransportSelector) Select(req Requirement, candidates []Candidate) (Selection, error) {
	if req.Mass < 0 || req.Volume < 0 || math.IsNaN(req.Mass) || math.IsNaN(req.Volume) {
		return Selection{}, errs.NewValueIsInvalidError("requirement")
	}
	if len(candidates) == 0 {
		return Selection{}, ErrNoCarrier
	}

	var (
		best      Selection
		bestScore = math.MaxFloat64
		found     bool
	)

	for _, c := range candidates {
		if err := c.Transport.Validate(); err != nil {
			return Selection{}, err
		}

		slot, ok := c.Transport.SlotForTag(req.ContainerTag)
		if !ok {
			continue
		}
		if req.Mass > c.FreeMass || req.Volume > c.FreeVolume {
			continue
		}

		score := math.Max(
			(c.FreeMass-req.Mass)/c.Transport.MaxMass(),
			(c.FreeVolume-req.Volume)/c.Transport.MaxVolume(),
		)
		if score < bestScore {
			bestScore = score
			best = Selection{Transport: c.Transport, Slot: slot, Score: score}
			found = true
		}
	}

	if !found {
		return Selection{}, ErrNoCapacity
	}
	return best, nil
}
