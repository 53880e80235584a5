package pipeline_test

import (
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
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/model/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) OrderCreated(kind string)                { m.Called(kind) }
func (m *MockMetrics) OrderFailed(reason kernel.FailureReason) { m.Called(reason) }
func (m *MockMetrics) OrderDelivered(amount float64)           { m.Called(amount) }
func (m *MockMetrics) OrdersConsolidated(n int)                { m.Called(n) }
func (m *MockMetrics) ReservationsExpired(n int)               { m.Called(n) }
func (m *MockMetrics) ShipmentTransition(status string)        { m.Called(status) }
func (m *MockMetrics) CargoDecayed(amount float64)             { m.Called(amount) }
func (m *MockMetrics) StageCompleted(stage string, d time.Duration, err error) {
	m.Called(stage, d, err)
}

func TestBuild_StageOrder(t *testing.T) {
	cat, err := catalog.NewCatalog(nil, nil)
	require.NoError(t, err)
	w := world.New(cat)

	p, err := pipeline.Build(pipeline.Dependencies{
		UnitOfWork:   memory.NewUnitOfWorkFactory(memory.NewStore()),
		Catalogs:     w,
		Nodes:        w.Nodes(),
		Storehouses:  w.Storehouses(),
		Construction: w.Construction(),
		Transports:   w.Transports(),
		Conditions:   w.Conditions(),
		Clock:        simulation.NewClock(0, time.Second),
		Gate:         simulation.NewGate(true, true),
		Logger:       discard(),
		Policy:       commands.DefaultPolicy(time.Second),
		NominalSpeed: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		pipeline.StageGenerator,
		pipeline.StagePlanner,
		pipeline.StageReservations,
		pipeline.StageDispatcher,
		pipeline.StageRouter,
		pipeline.StageRerouter,
		pipeline.StageProgression,
		pipeline.StageDelivery,
		pipeline.StageCargoDecay,
		pipeline.StageCargoSummary,
	}, p.Stages())
}

func TestBuild_RejectsInvalidSpeed(t *testing.T) {
	_, err := pipeline.Build(pipeline.Dependencies{
		Clock:        simulation.NewClock(0, time.Second),
		Logger:       discard(),
		NominalSpeed: 0,
	})
	require.Error(t, err)
}

// A construction site short of 100 wood is supplied from the only warehouse end to end.
func TestBuild_SuppliesConstructionSite(t *testing.T) {
	ctx := t.Context()
	cat, err := catalog.NewCatalog([]catalog.ItemSpec{{ID: "wood", Mass: 1, Volume: 0.001, Value: 2}}, []string{"wood"})
	require.NoError(t, err)
	w := world.New(cat)

	services := node.Services{LoadSlots: 1, UnloadSlots: 1}
	warehouse, err := node.NewNode(kernel.NewUUID(), "warehouse", node.KindWarehouse, kernel.MustNewLocation(0, 0, 0), services, node.Attributes{})
	require.NoError(t, err)
	site, err := node.NewNode(kernel.NewUUID(), "site", node.KindConstructionSite, kernel.MustNewLocation(30, 40, 0), services, node.Attributes{})
	require.NoError(t, err)
	w.AddNode(warehouse)
	w.AddNode(site)
	w.AddStorehouse(warehouse.ID(), nil, map[string]float64{"wood": 500})
	w.AddConstructionSite(site.ID(), map[string]float64{"wood": 100})
	cart, err := transport.NewTransport(kernel.NewUUID(), "cart", 200, 2)
	require.NoError(t, err)
	w.PutTransport(cart)

	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	clock := simulation.NewClock(0, time.Second)
	p, err := pipeline.Build(pipeline.Dependencies{
		UnitOfWork:   factory,
		Catalogs:     w,
		Nodes:        w.Nodes(),
		Storehouses:  w.Storehouses(),
		Construction: w.Construction(),
		Transports:   w.Transports(),
		Conditions:   w.Conditions(),
		Clock:        clock,
		Gate:         simulation.NewGate(true, true),
		Logger:       discard(),
		Policy:       commands.DefaultPolicy(time.Second),
		NominalSpeed: 10,
	})
	require.NoError(t, err)

	for range 15 {
		_, err = p.Run(ctx, clock.Advance())
		require.NoError(t, err)
	}

	ledger, err := w.Construction().Get(ctx, site.ID())
	require.NoError(t, err)
	assert.InDelta(t, 100, ledger.Delivered["wood"], 1e-9)
	stock, err := w.Storehouses().Get(ctx, warehouse.ID())
	require.NoError(t, err)
	assert.InDelta(t, 400, stock.StockOf("wood"), 1e-9)

	orders, err := factory.Create().OrderRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.Delivered, orders[0].Status())

	shipments, err := factory.Create().ShipmentRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	assert.Equal(t, shipment.Delivered, shipments[0].Status())
}
