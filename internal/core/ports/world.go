package ports

import (
	"context"
	"time"

	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/transport"
)

// CatalogProvider exposes the live item and resource-type catalog.
type CatalogProvider interface {
	Catalog() *catalog.Catalog
}

// NodeDirectory resolves logistics nodes. Get returns errs.ErrObjectNotFound for nodes
// that no longer exist.
type NodeDirectory interface {
	Get(ctx context.Context, id kernel.UUID) (*node.Node, error)
	List(ctx context.Context) ([]*node.Node, error)
}

// Storehouse is a snapshot of one storehouse inventory.
type Storehouse struct {
	NodeID kernel.UUID
	// Capacity is the maximum stock per stocked resource id.
	Capacity map[string]float64
	// Stock is the current amount per resource id.
	Stock map[string]float64
}

// StockOf returns the current amount of a resource.
func (s Storehouse) StockOf(resourceID string) float64 {
	return s.Stock[resourceID]
}

// Storehouses is the inventory collaborator.
type Storehouses interface {
	// List returns every storehouse sorted by node id.
	List(ctx context.Context) ([]Storehouse, error)

	// Get returns one storehouse, errs.ErrObjectNotFound if it is gone.
	Get(ctx context.Context, nodeID kernel.UUID) (Storehouse, error)

	// Withdraw removes up to amount and returns what was actually removed.
	Withdraw(ctx context.Context, nodeID kernel.UUID, resourceID string, amount float64) (float64, error)

	// Deposit adds up to amount and returns what was actually accepted.
	Deposit(ctx context.Context, nodeID kernel.UUID, resourceID string, amount float64) (float64, error)
}

// ConstructionSite is a snapshot of one construction ledger.
type ConstructionSite struct {
	NodeID    kernel.UUID
	Required  map[string]float64
	Delivered map[string]float64
}

// Shortfall returns required minus delivered for a resource, never negative.
func (c ConstructionSite) Shortfall(resourceID string) float64 {
	if s := c.Required[resourceID] - c.Delivered[resourceID]; s > 0 {
		return s
	}
	return 0
}

// ConstructionLedger is the construction demand and settlement collaborator.
type ConstructionLedger interface {
	// Sites returns every construction site sorted by node id.
	Sites(ctx context.Context) ([]ConstructionSite, error)

	// Get returns one site, errs.ErrObjectNotFound if the node is not a site.
	Get(ctx context.Context, nodeID kernel.UUID) (ConstructionSite, error)

	// AddDelivered credits amount of a resource to a site.
	AddDelivered(ctx context.Context, nodeID kernel.UUID, resourceID string, amount float64) error
}

// TransportDirectory is the read side of the transport-movement collaborator.
type TransportDirectory interface {
	// Available returns transports that may take new cargo, in a stable order.
	Available(ctx context.Context) ([]*transport.Transport, error)

	// Get returns errs.ErrObjectNotFound for a transport that ceased to exist.
	Get(ctx context.Context, id kernel.UUID) (*transport.Transport, error)
}

// RouteConditions reports blocked connections between nodes.
type RouteConditions interface {
	Blocked(ctx context.Context, from, to kernel.UUID) (bool, error)
}

// Clock is the authoritative simulation clock.
type Clock interface {
	Now() kernel.Tick
	TickDuration() time.Duration
}

// SimulationGate carries the two process-wide flags that must both be set for the
// pipeline to run.
type SimulationGate interface {
	EconomyEnabled() bool
	Recording() bool
}
