package pipeline_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"logistics/internal/adapters/out/memory"
	"logistics/internal/adapters/out/simulation"
	"logistics/internal/adapters/out/world"
	"logistics/internal/core/application/pipeline"
	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/model/transport"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeFlowScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

const tolerance = 1e-9

type flowContext struct {
	items     []catalog.ItemSpec
	resources []string

	world      *world.World
	factory    *memory.UnitOfWorkFactory
	clock      *simulation.Clock
	gate       *simulation.Gate
	pipeline   *pipeline.Pipeline
	nodes      map[string]*node.Node
	transports []*transport.Transport
	reports    []pipeline.Report
}

func (fc *flowContext) reset() {
	fc.items = nil
	fc.resources = nil
	fc.world = nil
	fc.factory = memory.NewUnitOfWorkFactory(memory.NewStore())
	fc.clock = simulation.NewClock(0, time.Second)
	fc.gate = simulation.NewGate(true, true)
	fc.pipeline = nil
	fc.nodes = make(map[string]*node.Node)
	fc.transports = nil
	fc.reports = nil
}

// ensureWorld freezes the catalog on first use; items declared afterwards are rejected.
func (fc *flowContext) ensureWorld() error {
	if fc.world != nil {
		return nil
	}
	cat, err := catalog.NewCatalog(fc.items, fc.resources)
	if err != nil {
		return err
	}
	fc.world = world.New(cat)
	return nil
}

func (fc *flowContext) addNode(name string, kind node.Kind, x float64) (*node.Node, error) {
	if err := fc.ensureWorld(); err != nil {
		return nil, err
	}
	n, err := node.NewNode(kernel.NewUUID(), name, kind, kernel.MustNewLocation(x, 0, 0),
		node.Services{LoadSlots: 1, UnloadSlots: 1, Offered: node.FlagLoading | node.FlagUnloading},
		node.Attributes{})
	if err != nil {
		return nil, err
	}
	fc.world.AddNode(n)
	fc.nodes[name] = n
	return n, nil
}

func (fc *flowContext) node(name string) (*node.Node, error) {
	n, ok := fc.nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", name)
	}
	return n, nil
}

func (fc *flowContext) build() error {
	if fc.pipeline != nil {
		return nil
	}
	if err := fc.ensureWorld(); err != nil {
		return err
	}
	p, err := pipeline.Build(pipeline.Dependencies{
		UnitOfWork:   fc.factory,
		Catalogs:     fc.world,
		Nodes:        fc.world.Nodes(),
		Storehouses:  fc.world.Storehouses(),
		Construction: fc.world.Construction(),
		Transports:   fc.world.Transports(),
		Conditions:   fc.world.Conditions(),
		Clock:        fc.clock,
		Gate:         fc.gate,
		Logger:       discard(),
		Policy:       commands.DefaultPolicy(time.Second),
		NominalSpeed: 10,
	})
	if err != nil {
		return err
	}
	fc.pipeline = p
	return nil
}

func (fc *flowContext) tick(ctx context.Context) error {
	if err := fc.build(); err != nil {
		return err
	}
	report, err := fc.pipeline.Run(ctx, fc.clock.Advance())
	if err != nil {
		return err
	}
	fc.reports = append(fc.reports, report)
	return nil
}

func (fc *flowContext) orders(ctx context.Context) ([]*order.Order, error) {
	return fc.factory.Create().OrderRepository().List(ctx)
}

func (fc *flowContext) shipments(ctx context.Context) ([]*shipment.Shipment, error) {
	return fc.factory.Create().ShipmentRepository().List(ctx)
}

// Given steps

func (fc *flowContext) aCatalogItem(id string, mass, volume float64) error {
	if fc.world != nil {
		return fmt.Errorf("catalog item %q declared after the world was built", id)
	}
	fc.items = append(fc.items, catalog.ItemSpec{ID: id, Mass: mass, Volume: volume, Value: 1})
	fc.resources = append(fc.resources, id)
	return nil
}

func (fc *flowContext) aWarehouseHolding(name string, x, amount float64, resourceID string) error {
	n, err := fc.addNode(name, node.KindWarehouse, x)
	if err != nil {
		return err
	}
	fc.world.AddStorehouse(n.ID(), nil, map[string]float64{resourceID: amount})
	return nil
}

func (fc *flowContext) aConstructionSiteRequiring(name string, x, amount float64, resourceID string) error {
	n, err := fc.addNode(name, node.KindConstructionSite, x)
	if err != nil {
		return err
	}
	fc.world.AddConstructionSite(n.ID(), map[string]float64{resourceID: amount})
	return nil
}

func (fc *flowContext) aTransportCarrying(name string, mass, volume float64) error {
	if err := fc.ensureWorld(); err != nil {
		return err
	}
	tr, err := transport.NewTransport(kernel.NewUUID(), name, mass, volume)
	if err != nil {
		return err
	}
	fc.world.PutTransport(tr)
	fc.transports = append(fc.transports, tr)
	return nil
}

func (fc *flowContext) warehouseHoldsOnly(name string, amount float64, resourceID string) error {
	n, err := fc.node(name)
	if err != nil {
		return err
	}
	fc.world.SetStock(n.ID(), resourceID, amount)
	return nil
}

func (fc *flowContext) theConnectionIsBlocked(a, b string) error {
	from, err := fc.node(a)
	if err != nil {
		return err
	}
	to, err := fc.node(b)
	if err != nil {
		return err
	}
	fc.world.SetBlocked(from.ID(), to.ID(), true)
	return nil
}

func (fc *flowContext) theEconomyIs(state string) error {
	fc.gate.SetEconomyEnabled(state == "enabled")
	return nil
}

// When steps

func (fc *flowContext) thePipelineRunsFor(ctx context.Context, ticks int) error {
	for range ticks {
		if err := fc.tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (fc *flowContext) thePipelineRunsUntilTheShipmentIs(ctx context.Context, status string) error {
	want, err := shipment.ParseStatus(status)
	if err != nil {
		return err
	}
	for range 50 {
		if err = fc.tick(ctx); err != nil {
			return err
		}
		all, listErr := fc.shipments(ctx)
		if listErr != nil {
			return listErr
		}
		if len(all) == 1 && all[0].Status() == want {
			return nil
		}
	}
	return fmt.Errorf("no shipment reached %s within 50 ticks", status)
}

func (fc *flowContext) nodeIsDestroyed(name string) error {
	n, err := fc.node(name)
	if err != nil {
		return err
	}
	fc.world.RemoveNode(n.ID())
	return nil
}

// Then steps

func (fc *flowContext) ordersWithStatus(ctx context.Context, count int, status string) error {
	want, err := order.ParseStatus(status)
	if err != nil {
		return err
	}
	all, err := fc.orders(ctx)
	if err != nil {
		return err
	}
	got := 0
	for _, o := range all {
		if o.Status() == want {
			got++
		}
	}
	if got != count {
		return fmt.Errorf("expected %d %s orders, got %d", count, status, got)
	}
	return nil
}

func (fc *flowContext) shipmentsWithStatus(ctx context.Context, count int, status string) error {
	want, err := shipment.ParseStatus(status)
	if err != nil {
		return err
	}
	all, err := fc.shipments(ctx)
	if err != nil {
		return err
	}
	got := 0
	for _, s := range all {
		if s.Status() == want {
			got++
		}
	}
	if got != count {
		return fmt.Errorf("expected %d %s shipments, got %d", count, status, got)
	}
	return nil
}

func (fc *flowContext) activeCapacityTotals(ctx context.Context, mass, volume float64) error {
	holds, err := fc.factory.Create().ReservationRepository().List(ctx, reservation.Active)
	if err != nil {
		return err
	}
	var gotMass, gotVolume float64
	for _, r := range holds {
		if r.Kind() == reservation.Capacity {
			gotMass += r.Mass()
			gotVolume += r.Volume()
		}
	}
	if math.Abs(gotMass-mass) > tolerance || math.Abs(gotVolume-volume) > tolerance {
		return fmt.Errorf("expected capacity holds of %g kg / %g m³, got %g kg / %g m³",
			mass, volume, gotMass, gotVolume)
	}
	return nil
}

func (fc *flowContext) siteHasReceived(ctx context.Context, name string, amount float64, resourceID string) error {
	n, err := fc.node(name)
	if err != nil {
		return err
	}
	site, err := fc.world.Construction().Get(ctx, n.ID())
	if err != nil {
		return err
	}
	if got := site.Delivered[resourceID]; math.Abs(got-amount) > tolerance {
		return fmt.Errorf("expected %s to have received %g %s, got %g", name, amount, resourceID, got)
	}
	return nil
}

func (fc *flowContext) warehouseHolds(ctx context.Context, name string, amount float64, resourceID string) error {
	n, err := fc.node(name)
	if err != nil {
		return err
	}
	store, err := fc.world.Storehouses().Get(ctx, n.ID())
	if err != nil {
		return err
	}
	if got := store.StockOf(resourceID); math.Abs(got-amount) > tolerance {
		return fmt.Errorf("expected %s to hold %g %s, got %g", name, amount, resourceID, got)
	}
	return nil
}

func (fc *flowContext) noReservationIs(ctx context.Context, status string) error {
	holds, err := fc.factory.Create().ReservationRepository().List(ctx)
	if err != nil {
		return err
	}
	for _, r := range holds {
		if r.Status().String() == status {
			return fmt.Errorf("reservation %s of order %s is still %s", r.ID(), r.OrderID(), status)
		}
	}
	return nil
}

func (fc *flowContext) theShipmentFailedWith(ctx context.Context, reason string) error {
	all, err := fc.shipments(ctx)
	if err != nil {
		return err
	}
	if len(all) != 1 {
		return fmt.Errorf("expected a single shipment, got %d", len(all))
	}
	if got := all[0].Failure().String(); got != reason {
		return fmt.Errorf("expected shipment failure %s, got %s", reason, got)
	}
	return nil
}

func (fc *flowContext) theOrderFailedWith(ctx context.Context, reason string) error {
	all, err := fc.orders(ctx)
	if err != nil {
		return err
	}
	if len(all) != 1 {
		return fmt.Errorf("expected a single order, got %d", len(all))
	}
	if got := all[0].Failure().String(); got != reason {
		return fmt.Errorf("expected order failure %s, got %s", reason, got)
	}
	return nil
}

func (fc *flowContext) everyTickWasSkipped() error {
	if len(fc.reports) == 0 {
		return fmt.Errorf("no tick ran")
	}
	for _, r := range fc.reports {
		if !r.Skipped || r.Stages != 0 {
			return fmt.Errorf("tick %d ran %d stages", r.Tick, r.Stages)
		}
	}
	return nil
}

func initializeFlowScenario(sc *godog.ScenarioContext) {
	fc := &flowContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		fc.reset()
		return ctx, nil
	})

	sc.Step(`^a catalog item "([^"]*)" weighing ([\d.]+) kg and ([\d.]+) m³ per unit$`, fc.aCatalogItem)
	sc.Step(`^a warehouse "([^"]*)" at x ([\d.]+) holding ([\d.]+) "([^"]*)"$`, fc.aWarehouseHolding)
	sc.Step(`^a construction site "([^"]*)" at x ([\d.]+) requiring ([\d.]+) "([^"]*)"$`, fc.aConstructionSiteRequiring)
	sc.Step(`^a transport "([^"]*)" carrying ([\d.]+) kg and ([\d.]+) m³$`, fc.aTransportCarrying)
	sc.Step(`^warehouse "([^"]*)" holds only ([\d.]+) "([^"]*)"$`, fc.warehouseHoldsOnly)
	sc.Step(`^the connection between "([^"]*)" and "([^"]*)" is blocked$`, fc.theConnectionIsBlocked)
	sc.Step(`^the economy is (enabled|disabled)$`, fc.theEconomyIs)

	sc.Step(`^the pipeline runs for (\d+) ticks?$`, fc.thePipelineRunsFor)
	sc.Step(`^the pipeline runs until the shipment is "([^"]*)"$`, fc.thePipelineRunsUntilTheShipmentIs)
	sc.Step(`^node "([^"]*)" is destroyed$`, fc.nodeIsDestroyed)

	sc.Step(`^there (?:is|are) (\d+) orders? with status "([^"]*)"$`, fc.ordersWithStatus)
	sc.Step(`^there (?:is|are) (\d+) shipments? with status "([^"]*)"$`, fc.shipmentsWithStatus)
	sc.Step(`^the active capacity reservations total ([\d.]+) kg and ([\d.]+) m³$`, fc.activeCapacityTotals)
	sc.Step(`^site "([^"]*)" has received ([\d.]+) "([^"]*)"$`, fc.siteHasReceived)
	sc.Step(`^warehouse "([^"]*)" holds ([\d.]+) "([^"]*)"$`, fc.warehouseHolds)
	sc.Step(`^no reservation is "([^"]*)"$`, fc.noReservationIs)
	sc.Step(`^the shipment failed with "([^"]*)"$`, fc.theShipmentFailedWith)
	sc.Step(`^the order failed with "([^"]*)"$`, fc.theOrderFailedWith)
	sc.Step(`^every tick was skipped$`, fc.everyTickWasSkipped)
}
