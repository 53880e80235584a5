package commands

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/ports"
)

type demandKey struct {
	destination kernel.UUID
	resourceID  string
}

// GenerateOrdersCommandHandler turns unmet demand into orders.
//
// Two demand classes are scanned each tick:
//   - construction sites whose delivered amount is below the required amount
//     (Supply orders, high priority, amount = shortfall)
//   - storehouses whose stock of a stocked resource is below the restock threshold
//     (RedeployStock orders, low priority, amount = fill target minus stock)
//
// At most one non-terminal order exists per (destination, resource). The source is the
// nearest other storehouse that holds the resource; without one no order is created.
type GenerateOrdersCommandHandler struct {
	uowFactory   ports.UnitOfWorkFactory
	catalogs     ports.CatalogProvider
	nodes        ports.NodeDirectory
	storehouses  ports.Storehouses
	construction ports.ConstructionLedger
	policy       Policy
	metrics      ports.MetricsRecorder
	logger       *slog.Logger
}

func NewGenerateOrdersCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalogs ports.CatalogProvider,
	nodes ports.NodeDirectory,
	storehouses ports.Storehouses,
	construction ports.ConstructionLedger,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *GenerateOrdersCommandHandler {
	return &GenerateOrdersCommandHandler{
		uowFactory:   uowFactory,
		catalogs:     catalogs,
		nodes:        nodes,
		storehouses:  storehouses,
		construction: construction,
		policy:       policy,
		metrics:      metricsOrNop(metrics),
		logger:       logger.With("component", "order_generator"),
	}
}

// generation holds the per-tick state of one run.
type generation struct {
	now      kernel.Tick
	catalog  *catalog.Catalog
	pending  map[demandKey]bool
	stores   []ports.Storehouse
	position map[kernel.UUID]kernel.Location
	created  []*order.Order
}

func (h *GenerateOrdersCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	active, err := uow.OrderRepository().ListActive(ctx)
	if err != nil {
		return err
	}
	stores, err := h.storehouses.List(ctx)
	if err != nil {
		return err
	}
	sites, err := h.construction.Sites(ctx)
	if err != nil {
		return err
	}

	g := &generation{
		now:      cmd.Tick(),
		catalog:  h.catalogs.Catalog(),
		pending:  make(map[demandKey]bool, len(active)),
		stores:   stores,
		position: make(map[kernel.UUID]kernel.Location),
	}
	for _, o := range active {
		g.pending[demandKey{destination: o.Destination(), resourceID: o.ResourceID()}] = true
	}
	if err = h.locate(ctx, g, sites); err != nil {
		return err
	}

	for _, site := range sites {
		if _, ok := g.position[site.NodeID]; !ok {
			continue
		}
		for _, resourceID := range sortedKeys(site.Required) {
			shortfall := site.Shortfall(resourceID)
			if shortfall <= 0 {
				continue
			}
			if err = h.emit(g, site.NodeID, resourceID, shortfall, order.KindSupply, order.PriorityHigh); err != nil {
				return err
			}
		}
	}

	for _, store := range stores {
		if _, ok := g.position[store.NodeID]; !ok {
			continue
		}
		for _, resourceID := range sortedKeys(store.Capacity) {
			capacity := store.Capacity[resourceID]
			stock := store.StockOf(resourceID)
			if capacity <= 0 || stock >= h.policy.RestockThreshold*capacity {
				continue
			}
			amount := h.policy.RestockFillTarget*capacity - stock
			if amount <= 0 {
				continue
			}
			if err = h.emit(g, store.NodeID, resourceID, amount, order.KindRedeployStock, order.PriorityLow); err != nil {
				return err
			}
		}
	}

	for _, o := range g.created {
		if err = uow.OrderRepository().Add(ctx, o); err != nil {
			return err
		}
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	for _, o := range g.created {
		h.metrics.OrderCreated(o.Kind().String())
	}
	if len(g.created) > 0 {
		h.logger.DebugContext(ctx, "orders generated", "tick", uint64(g.now), "count", len(g.created))
	}
	return nil
}

// locate caches the position of every storehouse and site that still resolves.
func (h *GenerateOrdersCommandHandler) locate(ctx context.Context, g *generation, sites []ports.ConstructionSite) error {
	ids := make([]kernel.UUID, 0, len(g.stores)+len(sites))
	for _, s := range g.stores {
		ids = append(ids, s.NodeID)
	}
	for _, s := range sites {
		ids = append(ids, s.NodeID)
	}
	for _, id := range ids {
		if _, ok := g.position[id]; ok {
			continue
		}
		n, err := h.nodes.Get(ctx, id)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		g.position[id] = n.Position()
	}
	return nil
}

func (h *GenerateOrdersCommandHandler) emit(
	g *generation,
	destination kernel.UUID,
	resourceID string,
	amount float64,
	kind order.Kind,
	priority order.Priority,
) error {
	key := demandKey{destination: destination, resourceID: resourceID}
	if g.pending[key] {
		return nil
	}

	index, ok := g.catalog.ResolveResource(resourceID)
	if !ok {
		h.logger.Debug("demand for unknown resource ignored", "resource", resourceID, "destination", destination.String())
		return nil
	}

	source, ok := h.nearestSource(g, destination, resourceID, kind == order.KindRedeployStock)
	if !ok {
		return nil
	}

	o, err := order.NewOrder(kernel.NewUUID(), order.Request{
		Kind:          kind,
		Priority:      priority,
		Source:        source,
		Destination:   destination,
		ResourceID:    resourceID,
		ResourceIndex: index,
		Amount:        amount,
		CreatedTick:   g.now,
	})
	if err != nil {
		return err
	}

	g.pending[key] = true
	g.created = append(g.created, o)
	return nil
}

// nearestSource picks the closest storehouse other than destination holding resourceID.
// For restocking, the source must stay above its own restock threshold.
func (h *GenerateOrdersCommandHandler) nearestSource(g *generation, destination kernel.UUID, resourceID string, restock bool) (kernel.UUID, bool) {
	target := g.position[destination]
	var (
		best     kernel.UUID
		bestDist = math.MaxFloat64
		found    bool
	)
	for _, s := range g.stores {
		if s.NodeID.IsEqual(destination) {
			continue
		}
		pos, ok := g.position[s.NodeID]
		if !ok {
			continue
		}
		stock := s.StockOf(resourceID)
		floor := 0.0
		if restock {
			floor = h.policy.RestockThreshold * s.Capacity[resourceID]
		}
		if stock <= 0 || stock <= floor {
			continue
		}
		d, err := pos.DistanceTo(target)
		if err != nil {
			continue
		}
		if d < bestDist {
			best, bestDist, found = s.NodeID, d, true
		}
	}
	return best, found
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
