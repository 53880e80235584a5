// Package world is an in-process stand-in for the simulation around the logistics
// pipeline: the catalog, logistics nodes, storehouse inventories, construction ledgers,
// transports and blocked connections. It implements the collaborator ports and lets the
// simulator, tests and the scenario loader change the world between ticks.
package world

import (
	"sync"

	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/transport"
)

type inventory struct {
	capacity map[string]float64
	stock    map[string]float64
}

type site struct {
	required  map[string]float64
	delivered map[string]float64
}

type pair struct {
	from kernel.UUID
	to   kernel.UUID
}

// World holds the mutable simulation state. It is safe for concurrent use.
type World struct {
	mu sync.RWMutex

	catalog     *catalog.Catalog
	nodes       map[kernel.UUID]*node.Node
	storehouses map[kernel.UUID]*inventory
	sites       map[kernel.UUID]*site
	transports  map[kernel.UUID]*transport.Transport
	unavailable map[kernel.UUID]bool
	blocked     map[pair]bool
}

// New creates an empty world around a catalog.
func New(cat *catalog.Catalog) *World {
	return &World{
		catalog:     cat,
		nodes:       make(map[kernel.UUID]*node.Node),
		storehouses: make(map[kernel.UUID]*inventory),
		sites:       make(map[kernel.UUID]*site),
		transports:  make(map[kernel.UUID]*transport.Transport),
		unavailable: make(map[kernel.UUID]bool),
		blocked:     make(map[pair]bool),
	}
}

// Catalog implements ports.CatalogProvider.
func (w *World) Catalog() *catalog.Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.catalog
}

// SetCatalog swaps in a reloaded catalog.
func (w *World) SetCatalog(cat *catalog.Catalog) {
	w.mu.Lock()
	w.catalog = cat
	w.mu.Unlock()
}

// AddNode registers or replaces a node.
func (w *World) AddNode(n *node.Node) {
	w.mu.Lock()
	w.nodes[n.ID()] = n
	w.mu.Unlock()
}

// RemoveNode destroys a node together with its storehouse and construction site.
func (w *World) RemoveNode(id kernel.UUID) {
	w.mu.Lock()
	delete(w.nodes, id)
	delete(w.storehouses, id)
	delete(w.sites, id)
	w.mu.Unlock()
}

// AddStorehouse attaches an inventory to a node. Resources missing from capacity are
// unbounded.
func (w *World) AddStorehouse(nodeID kernel.UUID, capacity, stock map[string]float64) {
	w.mu.Lock()
	w.storehouses[nodeID] = &inventory{capacity: cloneAmounts(capacity), stock: cloneAmounts(stock)}
	w.mu.Unlock()
}

// SetStock overwrites the stock of one resource.
func (w *World) SetStock(nodeID kernel.UUID, resourceID string, amount float64) {
	w.mu.Lock()
	if inv, ok := w.storehouses[nodeID]; ok {
		inv.stock[resourceID] = amount
	}
	w.mu.Unlock()
}

// AddConstructionSite attaches a construction ledger to a node.
func (w *World) AddConstructionSite(nodeID kernel.UUID, required map[string]float64) {
	w.mu.Lock()
	w.sites[nodeID] = &site{required: cloneAmounts(required), delivered: make(map[string]float64)}
	w.mu.Unlock()
}

// PutTransport registers a transport or replaces its current reading (position,
// unloading signal, slots).
func (w *World) PutTransport(t *transport.Transport) {
	w.mu.Lock()
	w.transports[t.ID()] = t
	w.mu.Unlock()
}

// RemoveTransport makes a transport cease to exist.
func (w *World) RemoveTransport(id kernel.UUID) {
	w.mu.Lock()
	delete(w.transports, id)
	delete(w.unavailable, id)
	w.mu.Unlock()
}

// SetAvailable controls whether a transport is offered to the dispatcher.
func (w *World) SetAvailable(id kernel.UUID, available bool) {
	w.mu.Lock()
	if available {
		delete(w.unavailable, id)
	} else {
		w.unavailable[id] = true
	}
	w.mu.Unlock()
}

// SetBlocked blocks or unblocks the connection between two nodes in both directions.
func (w *World) SetBlocked(a, b kernel.UUID, blocked bool) {
	w.mu.Lock()
	for _, p := range []pair{{from: a, to: b}, {from: b, to: a}} {
		if blocked {
			w.blocked[p] = true
		} else {
			delete(w.blocked, p)
		}
	}
	w.mu.Unlock()
}

// Nodes returns the node directory view.
func (w *World) Nodes() *NodeDirectory { return &NodeDirectory{w: w} }

// Storehouses returns the inventory view.
func (w *World) Storehouses() *Storehouses { return &Storehouses{w: w} }

// Construction returns the construction ledger view.
func (w *World) Construction() *ConstructionLedger { return &ConstructionLedger{w: w} }

// Transports returns the transport directory view.
func (w *World) Transports() *TransportDirectory { return &TransportDirectory{w: w} }

// Conditions returns the blocked-connection view.
func (w *World) Conditions() *RouteConditions { return &RouteConditions{w: w} }

func cloneAmounts(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
