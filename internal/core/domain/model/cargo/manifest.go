// Package cargo tracks what each transport carries and derives load and value summaries
// from it.
package cargo

import (
	"errors"
	"fmt"

	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

// DecayEpsilon is the amount under which a decaying item is dropped from the manifest.
const DecayEpsilon = 1e-3

var ErrManifestIsNotConstructed = errors.New("Manifest must be created via NewManifest constructor")

// SpecSource resolves item specs; *catalog.Catalog satisfies it.
type SpecSource interface {
	Item(id string) (catalog.ItemSpec, bool)
}

// Item is one manifest entry.
type Item struct {
	ResourceID    string
	Amount        float64
	ShipmentID    kernel.UUID
	ContainerSlot string
}

// LoadState aggregates the physical load of a manifest.
type LoadState struct {
	Mass      float64
	Volume    float64
	Value     float64
	ItemCount int
}

// EscortPriority buckets cargo value for escort planning.
type EscortPriority int

const (
	EscortNone EscortPriority = iota
	EscortLow
	EscortMedium
	EscortHigh
)

func (p EscortPriority) String() string {
	switch p {
	case EscortLow:
		return "Low"
	case EscortMedium:
		return "Medium"
	case EscortHigh:
		return "High"
	default:
		return "None"
	}
}

// EscortPriorityFor maps a cargo value onto a bucket.
func EscortPriorityFor(value float64) EscortPriority {
	switch {
	case value >= 10000:
		return EscortHigh
	case value >= 1000:
		return EscortMedium
	case value >= 100:
		return EscortLow
	default:
		return EscortNone
	}
}

// ValueState carries the heuristics derived from cargo value.
type ValueState struct {
	Value              float64
	RaidAttractiveness float64
	EscortPriority     EscortPriority
}

// Manifest is the cargo list of one transport. Its id is the transport id.
type Manifest struct {
	transportID kernel.UUID
	items       []Item
	load        LoadState
	value       ValueState
	updatedTick kernel.Tick
	guard       guard.ConstructorGuard
}

func NewManifest(transportID kernel.UUID) (*Manifest, error) {
	if err := transportID.Validate(); err != nil {
		return nil, err
	}
	return &Manifest{transportID: transportID, guard: guard.NewConstructorGuard()}, nil
}

func (m *Manifest) Validate() error {
	if m == nil {
		return ErrManifestIsNotConstructed
	}
	return m.guard.Validate(ErrManifestIsNotConstructed)
}

func (m *Manifest) TransportID() kernel.UUID { return m.transportID }
func (m *Manifest) Load() LoadState          { return m.load }
func (m *Manifest) Value() ValueState        { return m.value }
func (m *Manifest) UpdatedTick() kernel.Tick { return m.updatedTick }
func (m *Manifest) IsEmpty() bool            { return len(m.items) == 0 }
func (m *Manifest) Items() []Item            { return append([]Item(nil), m.items...) }

// Add appends an item.
func (m *Manifest) Add(item Item) error {
	var resourceErr, amountErr error
	if item.ResourceID == "" {
		resourceErr = errs.NewValueIsRequiredError("resource id")
	}
	if !(item.Amount > 0) {
		amountErr = errs.NewValueIsInvalidErrorWithCause("amount is invalid", fmt.Errorf("%g is not greater than 0", item.Amount))
	}
	if err := errors.Join(resourceErr, amountErr, item.ShipmentID.Validate()); err != nil {
		return err
	}
	m.items = append(m.items, item)
	return nil
}

// RemoveShipment drops every item of a shipment and returns how many were removed.
func (m *Manifest) RemoveShipment(shipmentID kernel.UUID) int {
	kept := m.items[:0]
	removed := 0
	for _, it := range m.items {
		if it.ShipmentID.IsEqual(shipmentID) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return removed
}

// Decay applies one tick of perishing to every perishable item and drops items that fall
// under DecayEpsilon. It returns the total amount lost.
func (m *Manifest) Decay(specs SpecSource) float64 {
	lost := 0.0
	kept := m.items[:0]
	for _, it := range m.items {
		spec, ok := specs.Item(it.ResourceID)
		if ok && spec.Perishable() {
			next := it.Amount * (1 - spec.PerishRate)
			lost += it.Amount - next
			it.Amount = next
		}
		if it.Amount < DecayEpsilon {
			lost += it.Amount
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return lost
}

// Aggregate recomputes LoadState and ValueState. Items without a spec count toward
// ItemCount only.
func (m *Manifest) Aggregate(specs SpecSource, now kernel.Tick) {
	var load LoadState
	for _, it := range m.items {
		load.ItemCount++
		spec, ok := specs.Item(it.ResourceID)
		if !ok {
			continue
		}
		load.Mass += it.Amount * spec.Mass
		load.Volume += it.Amount * spec.Volume
		load.Value += it.Amount * spec.Value
	}
	m.load = load
	m.value = ValueState{
		Value:              load.Value,
		RaidAttractiveness: load.Value / (1 + load.Mass),
		EscortPriority:     EscortPriorityFor(load.Value),
	}
	m.updatedTick = now
}

// State is a flat snapshot of a Manifest.
type State struct {
	TransportID kernel.UUID
	Items       []Item
	Load        LoadState
	Value       ValueState
	UpdatedTick kernel.Tick
}

func (m *Manifest) State() State {
	return State{
		TransportID: m.transportID,
		Items:       m.Items(),
		Load:        m.load,
		Value:       m.value,
		UpdatedTick: m.updatedTick,
	}
}

// RestoreManifest rebuilds a Manifest from a persisted snapshot.
func RestoreManifest(s State) (*Manifest, error) {
	if err := s.TransportID.Validate(); err != nil {
		return nil, err
	}
	return &Manifest{
		transportID: s.TransportID,
		items:       append([]Item(nil), s.Items...),
		load:        s.Load,
		value:       s.Value,
		updatedTick: s.UpdatedTick,
		guard:       guard.NewConstructorGuard(),
	}, nil
}
