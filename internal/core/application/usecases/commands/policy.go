package commands

import (
	"time"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"
)

// DefaultInventoryTTL is the lifetime of an inventory hold in ticks.
const DefaultInventoryTTL = 1000

// DefaultRouteCacheTTL is how long a computed route stays fresh.
const DefaultRouteCacheTTL = 10 * time.Second

// Policy carries the tunables shared by the pipeline stages.
type Policy struct {
	InventoryTTL uint64
	CapacityTTL  uint64
	ServiceTTL   uint64

	// RestockThreshold is the stock fraction of capacity under which a storehouse asks
	// for more; RestockFillTarget is the fraction it asks to be filled up to.
	RestockThreshold  float64
	RestockFillTarget float64

	// RouteProfile applies to every generated shipment.
	RouteProfile  route.Profile
	RouteCacheTTL uint64
}

// DefaultPolicy returns the stock tunables for a clock with the given tick duration.
func DefaultPolicy(tickDuration time.Duration) Policy {
	return Policy{
		InventoryTTL:      DefaultInventoryTTL,
		CapacityTTL:       DefaultInventoryTTL,
		ServiceTTL:        DefaultInventoryTTL,
		RestockThreshold:  0.2,
		RestockFillTarget: 0.5,
		RouteProfile:      route.Profile{RiskTolerance: 1},
		RouteCacheTTL:     max(kernel.TicksFor(DefaultRouteCacheTTL, tickDuration), 1),
	}
}
