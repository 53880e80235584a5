package world

import (
	"context"
	"slices"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/transport"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"
)

// NodeDirectory implements ports.NodeDirectory.
type NodeDirectory struct{ w *World }

func (d *NodeDirectory) Get(_ context.Context, id kernel.UUID) (*node.Node, error) {
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	n, ok := d.w.nodes[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("node", id.String())
	}
	return n, nil
}

func (d *NodeDirectory) List(_ context.Context) ([]*node.Node, error) {
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	out := make([]*node.Node, 0, len(d.w.nodes))
	for _, n := range d.w.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *node.Node) int { return a.ID().Compare(b.ID()) })
	return out, nil
}

// Storehouses implements ports.Storehouses.
type Storehouses struct{ w *World }

func (s *Storehouses) List(_ context.Context) ([]ports.Storehouse, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]ports.Storehouse, 0, len(s.w.storehouses))
	for id, inv := range s.w.storehouses {
		out = append(out, snapshot(id, inv))
	}
	slices.SortFunc(out, func(a, b ports.Storehouse) int { return a.NodeID.Compare(b.NodeID) })
	return out, nil
}

func (s *Storehouses) Get(_ context.Context, nodeID kernel.UUID) (ports.Storehouse, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	inv, ok := s.w.storehouses[nodeID]
	if !ok {
		return ports.Storehouse{}, errs.NewObjectNotFoundError("storehouse", nodeID.String())
	}
	return snapshot(nodeID, inv), nil
}

// Withdraw removes up to amount; a missing storehouse yields nothing.
func (s *Storehouses) Withdraw(_ context.Context, nodeID kernel.UUID, resourceID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, errs.NewValueIsInvalidError("amount")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	inv, ok := s.w.storehouses[nodeID]
	if !ok {
		return 0, nil
	}
	taken := min(amount, max(inv.stock[resourceID], 0))
	inv.stock[resourceID] -= taken
	return taken, nil
}

// Deposit adds up to the free capacity for the resource.
func (s *Storehouses) Deposit(_ context.Context, nodeID kernel.UUID, resourceID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, errs.NewValueIsInvalidError("amount")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	inv, ok := s.w.storehouses[nodeID]
	if !ok {
		return 0, nil
	}
	accepted := amount
	if limit, bounded := inv.capacity[resourceID]; bounded {
		accepted = min(amount, max(limit-inv.stock[resourceID], 0))
	}
	inv.stock[resourceID] += accepted
	return accepted, nil
}

func snapshot(id kernel.UUID, inv *inventory) ports.Storehouse {
	return ports.Storehouse{NodeID: id, Capacity: cloneAmounts(inv.capacity), Stock: cloneAmounts(inv.stock)}
}

// ConstructionLedger implements ports.ConstructionLedger.
type ConstructionLedger struct{ w *World }

func (c *ConstructionLedger) Sites(_ context.Context) ([]ports.ConstructionSite, error) {
	c.w.mu.RLock()
	defer c.w.mu.RUnlock()
	out := make([]ports.ConstructionSite, 0, len(c.w.sites))
	for id, s := range c.w.sites {
		out = append(out, siteSnapshot(id, s))
	}
	slices.SortFunc(out, func(a, b ports.ConstructionSite) int { return a.NodeID.Compare(b.NodeID) })
	return out, nil
}

func (c *ConstructionLedger) Get(_ context.Context, nodeID kernel.UUID) (ports.ConstructionSite, error) {
	c.w.mu.RLock()
	defer c.w.mu.RUnlock()
	s, ok := c.w.sites[nodeID]
	if !ok {
		return ports.ConstructionSite{}, errs.NewObjectNotFoundError("construction site", nodeID.String())
	}
	return siteSnapshot(nodeID, s), nil
}

func (c *ConstructionLedger) AddDelivered(_ context.Context, nodeID kernel.UUID, resourceID string, amount float64) error {
	if amount < 0 {
		return errs.NewValueIsInvalidError("amount")
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	s, ok := c.w.sites[nodeID]
	if !ok {
		return errs.NewObjectNotFoundError("construction site", nodeID.String())
	}
	s.delivered[resourceID] += amount
	return nil
}

func siteSnapshot(id kernel.UUID, s *site) ports.ConstructionSite {
	return ports.ConstructionSite{NodeID: id, Required: cloneAmounts(s.required), Delivered: cloneAmounts(s.delivered)}
}

// TransportDirectory implements ports.TransportDirectory.
type TransportDirectory struct{ w *World }

// Available returns transports that are not withdrawn from service, sorted by id.
func (d *TransportDirectory) Available(_ context.Context) ([]*transport.Transport, error) {
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	out := make([]*transport.Transport, 0, len(d.w.transports))
	for id, t := range d.w.transports {
		if !d.w.unavailable[id] {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *transport.Transport) int { return a.ID().Compare(b.ID()) })
	return out, nil
}

func (d *TransportDirectory) Get(_ context.Context, id kernel.UUID) (*transport.Transport, error) {
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	t, ok := d.w.transports[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("transport", id.String())
	}
	return t, nil
}

// RouteConditions implements ports.RouteConditions.
type RouteConditions struct{ w *World }

func (c *RouteConditions) Blocked(_ context.Context, from, to kernel.UUID) (bool, error) {
	c.w.mu.RLock()
	defer c.w.mu.RUnlock()
	return c.w.blocked[pair{from: from, to: to}], nil
}

var (
	_ ports.CatalogProvider    = (*World)(nil)
	_ ports.NodeDirectory      = (*NodeDirectory)(nil)
	_ ports.Storehouses        = (*Storehouses)(nil)
	_ ports.ConstructionLedger = (*ConstructionLedger)(nil)
	_ ports.TransportDirectory = (*TransportDirectory)(nil)
	_ ports.RouteConditions    = (*RouteConditions)(nil)
)
