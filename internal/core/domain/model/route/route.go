// Package route holds cached cost and time estimates between two nodes.
//
// A Route is immutable apart from its status. When a route becomes unusable the rerouting
// stage creates a new record instead of editing the old one.
package route

import (
	"errors"
	"fmt"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

var ErrRouteIsNotConstructed = errors.New("Route must be created via NewRoute constructor")

// Profile constrains which endpoints a route may connect. Profile is comparable and is
// part of the cache key.
type Profile struct {
	// RiskTolerance is the highest endpoint risk accepted, in [0, 1].
	RiskTolerance float64
	// AllowRestricted permits restricted endpoints.
	AllowRestricted bool
	// RequireSecrecy limits routes to covert endpoints.
	RequireSecrecy bool
	// RequiredServices must be offered by both endpoints.
	RequiredServices node.ServiceFlags
}

// Validate checks the tolerance range.
func (p Profile) Validate() error {
	if p.RiskTolerance < 0 || p.RiskTolerance > 1 {
		return errs.NewValueIsOutOfRangeError("risk tolerance", p.RiskTolerance, 0, 1)
	}
	return nil
}

// Key identifies a cached route.
type Key struct {
	Source      kernel.UUID
	Destination kernel.UUID
	Profile     Profile
}

func (k Key) String() string {
	return fmt.Sprintf("%s->%s/%+v", k.Source, k.Destination, k.Profile)
}

// Estimate is the computed cost and time of a route.
type Estimate struct {
	Distance     float64
	Cost         float64
	TransitTicks uint64
}

// Status of a cached route.
type Status int

const (
	StatusUnknown Status = iota
	Valid
	// Invalid routes became blocked.
	Invalid
	// Expired routes outlived the cache TTL.
	Expired
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "Valid"
	case Invalid:
		return "Invalid"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Route is a cached estimate for one Key.
type Route struct {
	id           kernel.UUID
	key          Key
	estimate     Estimate
	status       Status
	computedTick kernel.Tick
	expiryTick   kernel.Tick
	guard        guard.ConstructorGuard
}

// NewRoute creates a Valid route that stays fresh for ttl ticks.
func NewRoute(id kernel.UUID, key Key, est Estimate, now kernel.Tick, ttl uint64) (*Route, error) {
	var estErr, ttlErr error
	if est.Distance < 0 || est.Cost < 0 {
		estErr = errs.NewValueIsInvalidErrorWithCause("estimate is invalid",
			fmt.Errorf("distance %g and cost %g must be non-negative", est.Distance, est.Cost))
	}
	if ttl == 0 {
		ttlErr = errs.NewValueIsInvalidErrorWithCause("ttl is invalid", errors.New("0 is not greater than 0"))
	}
	if err := errors.Join(
		id.Validate(),
		key.Source.Validate(),
		key.Destination.Validate(),
		key.Profile.Validate(),
		estErr,
		ttlErr,
	); err != nil {
		return nil, err
	}

	return &Route{
		id:           id,
		key:          key,
		estimate:     est,
		status:       Valid,
		computedTick: now,
		expiryTick:   now.Add(ttl),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (r *Route) Validate() error {
	if r == nil {
		return ErrRouteIsNotConstructed
	}
	return r.guard.Validate(ErrRouteIsNotConstructed)
}

func (r *Route) ID() kernel.UUID           { return r.id }
func (r *Route) Key() Key                  { return r.key }
func (r *Route) Estimate() Estimate        { return r.estimate }
func (r *Route) Distance() float64         { return r.estimate.Distance }
func (r *Route) Cost() float64             { return r.estimate.Cost }
func (r *Route) TransitTicks() uint64      { return r.estimate.TransitTicks }
func (r *Route) Status() Status            { return r.status }
func (r *Route) ComputedTick() kernel.Tick { return r.computedTick }
func (r *Route) ExpiryTick() kernel.Tick   { return r.expiryTick }

// IsStale reports whether the cache TTL has passed.
func (r *Route) IsStale(now kernel.Tick) bool {
	return now.After(r.expiryTick)
}

// IsUsable reports whether the route may be handed out from the cache.
func (r *Route) IsUsable(now kernel.Tick) bool {
	return r.status == Valid && !r.IsStale(now)
}

// Invalidate marks a Valid route as blocked.
func (r *Route) Invalidate() error {
	return r.transition(Invalid)
}

// Expire marks a Valid route as outdated.
func (r *Route) Expire() error {
	return r.transition(Expired)
}

func (r *Route) transition(to Status) error {
	if r.status != Valid {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s route cannot move to %s", r.status, to))
	}
	r.status = to
	return nil
}

// State is a flat snapshot of a Route.
type State struct {
	ID           kernel.UUID
	Key          Key
	Estimate     Estimate
	Status       Status
	ComputedTick kernel.Tick
	ExpiryTick   kernel.Tick
}

func (r *Route) State() State {
	return State{
		ID:           r.id,
		Key:          r.key,
		Estimate:     r.estimate,
		Status:       r.status,
		ComputedTick: r.computedTick,
		ExpiryTick:   r.expiryTick,
	}
}

// RestoreRoute rebuilds a Route from a persisted snapshot.
func RestoreRoute(s State) (*Route, error) {
	var statusErr error
	if s.Status < Valid || s.Status > Expired {
		statusErr = errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s.Status))
	}
	if err := errors.Join(s.ID.Validate(), s.Key.Source.Validate(), s.Key.Destination.Validate(), statusErr); err != nil {
		return nil, err
	}
	return &Route{
		id:           s.ID,
		key:          s.Key,
		estimate:     s.Estimate,
		status:       s.Status,
		computedTick: s.ComputedTick,
		expiryTick:   s.ExpiryTick,
		guard:        guard.NewConstructorGuard(),
	}, nil
}
