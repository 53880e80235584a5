package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"logistics/internal/adapters/out/memory"
	"logistics/internal/adapters/out/world"
	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/model/transport"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"github.com/stretchr/testify/require"
)

// harness is a small world: a warehouse at the origin holding 150 wood, a construction
// site 50 units east that needs 100 wood and one 200 kg / 2 m³ cart. Routes travel at
// 10 units per second with one-second ticks, so the warehouse-site trip takes 5 ticks.
type harness struct {
	t        *testing.T
	store    *memory.Store
	factory  ports.UnitOfWorkFactory
	world    *world.World
	catalog  *catalog.Catalog
	policy   commands.Policy
	calc     services.RouteCalculator
	detector *services.ArrivalDetector
	logger   *slog.Logger

	warehouse *node.Node
	site      *node.Node
	cart      *transport.Transport
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cat, err := catalog.NewCatalog([]catalog.ItemSpec{
		{ID: "wood", Mass: 1, Volume: 0.001, Value: 2},
		{ID: "stone", Mass: 2, Volume: 0.002, Value: 1},
		{ID: "fish", Mass: 1, Volume: 0.002, Value: 50, PerishRate: 0.1, ContainerTag: "cold"},
	}, []string{"wood", "stone", "fish", "ore"})
	require.NoError(t, err)

	calc, err := services.NewRouteCalculator(10, time.Second)
	require.NoError(t, err)

	store := memory.NewStore()
	h := &harness{
		t:        t,
		store:    store,
		factory:  memory.NewUnitOfWorkFactory(store),
		world:    world.New(cat),
		catalog:  cat,
		policy:   commands.DefaultPolicy(time.Second),
		calc:     calc,
		detector: services.NewArrivalDetector(services.DefaultArrivalRadius, time.Minute, time.Second),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	h.warehouse = h.addNode("warehouse", node.KindWarehouse, 0)
	h.site = h.addNode("site", node.KindConstructionSite, 50)
	h.world.AddStorehouse(h.warehouse.ID(), nil, map[string]float64{"wood": 150})
	h.world.AddConstructionSite(h.site.ID(), map[string]float64{"wood": 100})
	h.cart = h.addTransport("cart", 200, 2)
	return h
}

func (h *harness) addNode(name string, kind node.Kind, x float64) *node.Node {
	h.t.Helper()
	n, err := node.NewNode(kernel.NewUUID(), name, kind, kernel.MustNewLocation(x, 0, 0),
		node.Services{LoadSlots: 1, UnloadSlots: 1, Offered: node.FlagLoading | node.FlagUnloading},
		node.Attributes{})
	require.NoError(h.t, err)
	h.world.AddNode(n)
	return n
}

func (h *harness) addTransport(name string, mass, volume float64, opts ...transport.Option) *transport.Transport {
	h.t.Helper()
	tr, err := transport.NewTransport(kernel.NewUUID(), name, mass, volume, opts...)
	require.NoError(h.t, err)
	h.world.PutTransport(tr)
	return tr
}

// failingCommits makes every unit of work created until restore fail its Commit.
func (h *harness) failingCommits() (restore func()) {
	inner := h.factory
	h.factory = failingCommitFactory{inner: inner}
	return func() { h.factory = inner }
}

// seed returns a unit of work that is never begun, so its writes apply at once.
func (h *harness) seed() ports.UnitOfWork {
	return h.factory.Create()
}

func (h *harness) addOrder(o *order.Order) {
	h.t.Helper()
	require.NoError(h.t, h.seed().OrderRepository().Add(h.t.Context(), o))
}

// newOrder builds a Created order moving amount of resource from source to destination.
func (h *harness) newOrder(source, destination *node.Node, resourceID string, amount float64, created kernel.Tick) *order.Order {
	h.t.Helper()
	index, _ := h.catalog.ResolveResource(resourceID)
	o, err := order.NewOrder(kernel.NewUUID(), order.Request{
		Kind:          order.KindManual,
		Priority:      order.PriorityNormal,
		Source:        source.ID(),
		Destination:   destination.ID(),
		ResourceID:    resourceID,
		ResourceIndex: index,
		Amount:        amount,
		CreatedTick:   created,
	})
	require.NoError(h.t, err)
	return o
}

// reservedOrder stores a Reserved order together with its Active inventory hold.
func (h *harness) reservedOrder(source, destination *node.Node, resourceID string, amount float64, created kernel.Tick) *order.Order {
	h.t.Helper()
	o := h.newOrder(source, destination, resourceID, amount, created)
	require.NoError(h.t, o.BeginPlanning(o.ResourceIndex()))
	require.NoError(h.t, o.Reserve(amount))
	h.addOrder(o)

	hold, err := reservation.NewInventory(kernel.NewUUID(), o.ID(), source.ID(), resourceID, amount, created, h.policy.InventoryTTL)
	require.NoError(h.t, err)
	require.NoError(h.t, h.seed().ReservationRepository().Add(h.t.Context(), hold))
	return o
}

func (h *harness) generator() *commands.GenerateOrdersCommandHandler {
	return commands.NewGenerateOrdersCommandHandler(h.factory, h.world, h.world.Nodes(), h.world.Storehouses(),
		h.world.Construction(), h.policy, nil, h.logger)
}

func (h *harness) planner() *commands.PlanOrdersCommandHandler {
	return commands.NewPlanOrdersCommandHandler(h.factory, h.world, h.world.Nodes(), h.world.Conditions(),
		h.calc, h.policy, nil, h.logger)
}

func (h *harness) reservations() *commands.ManageReservationsCommandHandler {
	return commands.NewManageReservationsCommandHandler(h.factory, h.policy, nil, h.logger)
}

func (h *harness) dispatcher() *commands.DispatchOrdersCommandHandler {
	return commands.NewDispatchOrdersCommandHandler(h.factory, h.world, h.world.Transports(), h.policy, nil, h.logger)
}

func (h *harness) router() *commands.RouteShipmentsCommandHandler {
	return commands.NewRouteShipmentsCommandHandler(h.factory, h.world.Nodes(), h.world.Conditions(),
		h.calc, h.policy, nil, h.logger)
}

func (h *harness) rerouter() *commands.RerouteShipmentsCommandHandler {
	return commands.NewRerouteShipmentsCommandHandler(h.factory, h.world.Nodes(), h.world.Conditions(),
		h.calc, h.policy, nil, h.logger)
}

func (h *harness) progression() *commands.ProgressShipmentsCommandHandler {
	return commands.NewProgressShipmentsCommandHandler(h.factory, h.world.Nodes(), h.world.Transports(),
		h.world.Storehouses(), h.detector, h.policy, nil, h.logger)
}

func (h *harness) settlement() *commands.SettleDeliveriesCommandHandler {
	return commands.NewSettleDeliveriesCommandHandler(h.factory, h.world.Nodes(), h.world.Storehouses(),
		h.world.Construction(), nil, h.logger)
}

type tickHandler interface {
	Handle(ctx context.Context, cmd commands.TickCommand) error
}

// run executes the handlers in order for one tick.
func (h *harness) run(tick kernel.Tick, handlers ...tickHandler) {
	h.t.Helper()
	cmd := commands.NewTickCommand(tick)
	for _, hd := range handlers {
		require.NoError(h.t, hd.Handle(h.t.Context(), cmd))
	}
}

// pass runs every order and shipment stage for one tick.
func (h *harness) pass(tick kernel.Tick) {
	h.t.Helper()
	h.run(tick, h.generator(), h.planner(), h.reservations(), h.dispatcher(),
		h.router(), h.rerouter(), h.progression(), h.settlement())
}

func (h *harness) orders(statuses ...order.Status) []*order.Order {
	h.t.Helper()
	out, err := h.seed().OrderRepository().List(h.t.Context(), statuses...)
	require.NoError(h.t, err)
	return out
}

func (h *harness) order(id kernel.UUID) *order.Order {
	h.t.Helper()
	o, err := h.seed().OrderRepository().Get(h.t.Context(), id)
	require.NoError(h.t, err)
	return o
}

func (h *harness) holds(statuses ...reservation.Status) []*reservation.Reservation {
	h.t.Helper()
	out, err := h.seed().ReservationRepository().List(h.t.Context(), statuses...)
	require.NoError(h.t, err)
	return out
}

func (h *harness) holdsOf(kind reservation.Kind, statuses ...reservation.Status) []*reservation.Reservation {
	h.t.Helper()
	var out []*reservation.Reservation
	for _, r := range h.holds(statuses...) {
		if r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}

func (h *harness) shipments(statuses ...shipment.Status) []*shipment.Shipment {
	h.t.Helper()
	out, err := h.seed().ShipmentRepository().List(h.t.Context(), statuses...)
	require.NoError(h.t, err)
	return out
}

func (h *harness) shipment(id kernel.UUID) *shipment.Shipment {
	h.t.Helper()
	s, err := h.seed().ShipmentRepository().Get(h.t.Context(), id)
	require.NoError(h.t, err)
	return s
}

func (h *harness) routes(statuses ...route.Status) []*route.Route {
	h.t.Helper()
	out, err := h.seed().RouteRepository().List(h.t.Context(), statuses...)
	require.NoError(h.t, err)
	return out
}

// manifest returns the transport's manifest, or nil when it has none.
func (h *harness) manifest(transportID kernel.UUID) *cargo.Manifest {
	h.t.Helper()
	m, err := h.seed().ManifestRepository().Get(h.t.Context(), transportID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	require.NoError(h.t, err)
	return m
}

// through runs full passes for every tick in [from, to].
func (h *harness) through(from, to kernel.Tick) {
	h.t.Helper()
	for tick := from; tick <= to; tick++ {
		h.pass(tick)
	}
}

// onlyShipment returns the single shipment in the store.
func (h *harness) onlyShipment() *shipment.Shipment {
	h.t.Helper()
	all := h.shipments()
	require.Len(h.t, all, 1)
	return all[0]
}

func (h *harness) stock(n *node.Node, resourceID string) float64 {
	h.t.Helper()
	s, err := h.world.Storehouses().Get(h.t.Context(), n.ID())
	require.NoError(h.t, err)
	return s.StockOf(resourceID)
}

func (h *harness) delivered(n *node.Node, resourceID string) float64 {
	h.t.Helper()
	s, err := h.world.Construction().Get(h.t.Context(), n.ID())
	require.NoError(h.t, err)
	return s.Delivered[resourceID]
}
