// Package transport is the read model of carriers exposed by the movement collaborator.
// The pipeline never moves a transport; it only reads capacity and the coarse arrival
// signals (position, unloading phase) that may or may not be available.
package transport

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

// ErrTransportIsNotConstructed is returned when a zero-value Transport is used.
var ErrTransportIsNotConstructed = errors.New("Transport must be created via NewTransport constructor")

// ContainerSlot is a typed hold on a transport (refrigerated, tank, ...).
type ContainerSlot struct {
	ID     string
	Tag    string
	Volume float64
}

// Transport describes one carrier.
type Transport struct {
	id        kernel.UUID
	name      string
	maxMass   float64
	maxVolume float64
	virtual   bool
	slots     []ContainerSlot

	position  *kernel.Location
	unloading *bool

	guard guard.ConstructorGuard
}

// Option sets the optional signals of a transport.
type Option func(*Transport)

// WithPosition exposes the transport position to arrival detection.
func WithPosition(loc kernel.Location) Option {
	return func(t *Transport) { t.position = &loc }
}

// WithUnloadingSignal exposes the collaborator's unloading-phase flag.
func WithUnloadingSignal(unloading bool) Option {
	return func(t *Transport) { t.unloading = &unloading }
}

// WithContainerSlots declares the typed holds of the transport.
func WithContainerSlots(slots ...ContainerSlot) Option {
	return func(t *Transport) { t.slots = append([]ContainerSlot(nil), slots...) }
}

// Virtual marks a carrier with no movable entity; its shipments are abstract and
// time-driven.
func Virtual() Option {
	return func(t *Transport) { t.virtual = true }
}

// NewTransport validates and builds a Transport.
func NewTransport(id kernel.UUID, name string, maxMass, maxVolume float64, opts ...Option) (*Transport, error) {
	t := &Transport{
		id:        id,
		name:      name,
		maxMass:   maxMass,
		maxVolume: maxVolume,
		guard:     guard.NewConstructorGuard(),
	}
	for _, opt := range opts {
		opt(t)
	}

	var massErr, volErr, posErr error
	if maxMass <= 0 {
		massErr = errs.NewValueIsOutOfRangeError("max mass", maxMass, "0 (exclusive)", "+inf")
	}
	if maxVolume <= 0 {
		volErr = errs.NewValueIsOutOfRangeError("max volume", maxVolume, "0 (exclusive)", "+inf")
	}
	if t.position != nil {
		posErr = t.position.Validate()
	}

	if err := errors.Join(id.Validate(), massErr, volErr, posErr); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports whether the transport was built by NewTransport.
func (t *Transport) Validate() error {
	if t == nil {
		return ErrTransportIsNotConstructed
	}
	return t.guard.Validate(ErrTransportIsNotConstructed)
}

func (t *Transport) ID() kernel.UUID    { return t.id }
func (t *Transport) Name() string       { return t.name }
func (t *Transport) MaxMass() float64   { return t.maxMass }
func (t *Transport) MaxVolume() float64 { return t.maxVolume }
func (t *Transport) IsVirtual() bool    { return t.virtual }

// Position returns the transport position when the collaborator exposes one.
func (t *Transport) Position() (kernel.Location, bool) {
	if t.position == nil {
		return kernel.Location{}, false
	}
	return *t.position, true
}

// UnloadingSignal returns the unloading-phase flag when the collaborator exposes one.
func (t *Transport) UnloadingSignal() (bool, bool) {
	if t.unloading == nil {
		return false, false
	}
	return *t.unloading, true
}

// HasArrivalSignals reports whether either preferred arrival signal is available.
func (t *Transport) HasArrivalSignals() bool {
	return t.position != nil || t.unloading != nil
}

// ContainerSlots returns a copy of the typed holds.
func (t *Transport) ContainerSlots() []ContainerSlot {
	return append([]ContainerSlot(nil), t.slots...)
}

// SlotForTag returns the first slot carrying tag. An empty tag needs no slot and
// returns ok with a zero slot.
func (t *Transport) SlotForTag(tag string) (ContainerSlot, bool) {
	if tag == "" {
		return ContainerSlot{}, true
	}
	for _, s := range t.slots {
		if s.Tag == tag {
			return s, true
		}
	}
	return ContainerSlot{}, false
}

// HasSlot reports whether a slot id is still present.
func (t *Transport) HasSlot(id string) bool {
	if id == "" {
		return true
	}
	for _, s := range t.slots {
		if s.ID == id {
			return true
		}
	}
	return false
}
