package services

import (
	"errors"
	"fmt"
	"time"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/pkg/errs"
)

// ErrRouteUnavailable is returned when the profile rejects an endpoint.
var ErrRouteUnavailable = errors.New("route unavailable")

// RouteCalculator estimates straight-line routes. It does no path-finding: distance is
// the Euclidean distance between node positions and transit time follows from a fixed
// nominal speed.
type RouteCalculator struct {
	nominalSpeed float64
	tickDuration time.Duration
}

// NewRouteCalculator creates a calculator for a nominal speed in distance units per
// second.
func NewRouteCalculator(nominalSpeed float64, tickDuration time.Duration) (RouteCalculator, error) {
	var speedErr, tickErr error
	if !(nominalSpeed > 0) {
		speedErr = errs.NewValueIsOutOfRangeError("nominal speed", nominalSpeed, "0 (exclusive)", "+inf")
	}
	if tickDuration <= 0 {
		tickErr = errs.NewValueIsOutOfRangeError("tick duration", tickDuration, "0 (exclusive)", "+inf")
	}
	if err := errors.Join(speedErr, tickErr); err != nil {
		return RouteCalculator{}, err
	}
	return RouteCalculator{nominalSpeed: nominalSpeed, tickDuration: tickDuration}, nil
}

// Estimate checks both endpoints against the profile and computes the route.
//
// Cost is distance weighted by the mean endpoint risk. Transit is at least one tick.
func (c RouteCalculator) Estimate(from, to *node.Node, profile route.Profile) (route.Estimate, error) {
	if err := errors.Join(from.Validate(), to.Validate(), profile.Validate()); err != nil {
		return route.Estimate{}, err
	}
	if err := errors.Join(checkEndpoint(from, profile), checkEndpoint(to, profile)); err != nil {
		return route.Estimate{}, err
	}

	distance, err := from.Position().DistanceTo(to.Position())
	if err != nil {
		return route.Estimate{}, err
	}

	seconds := distance / c.nominalSpeed
	transit := kernel.TicksFor(time.Duration(seconds*float64(time.Second)), c.tickDuration)
	if transit == 0 {
		transit = 1
	}

	return route.Estimate{
		Distance:     distance,
		Cost:         distance * (1 + (from.Risk()+to.Risk())/2),
		TransitTicks: transit,
	}, nil
}

func checkEndpoint(n *node.Node, p route.Profile) error {
	switch {
	case n.Risk() > p.RiskTolerance:
		return fmt.Errorf("%w: %s risk %g exceeds tolerance %g", ErrRouteUnavailable, n.Name(), n.Risk(), p.RiskTolerance)
	case n.Restricted() && !p.AllowRestricted:
		return fmt.Errorf("%w: %s is restricted", ErrRouteUnavailable, n.Name())
	case p.RequireSecrecy && !n.Covert():
		return fmt.Errorf("%w: %s is not covert", ErrRouteUnavailable, n.Name())
	case !n.Services().Offered.Has(p.RequiredServices):
		return fmt.Errorf("%w: %s lacks required services", ErrRouteUnavailable, n.Name())
	}
	return nil
}
