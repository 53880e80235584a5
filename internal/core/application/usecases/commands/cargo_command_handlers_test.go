package commands_test

import (
	"testing"

	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (h *harness) seedManifest(transportID kernel.UUID, items ...cargo.Item) {
	h.t.Helper()
	m, err := cargo.NewManifest(transportID)
	require.NoError(h.t, err)
	for _, it := range items {
		require.NoError(h.t, m.Add(it))
	}
	require.NoError(h.t, h.seed().ManifestRepository().Add(h.t.Context(), m))
}

func TestDecayCargoCommandHandler_DecaysPerishables(t *testing.T) {
	h := newHarness(t)
	shipmentID := kernel.NewUUID()
	h.seedManifest(h.cart.ID(),
		cargo.Item{ResourceID: "fish", Amount: 10, ShipmentID: shipmentID},
		cargo.Item{ResourceID: "wood", Amount: 100, ShipmentID: shipmentID},
	)
	metrics := new(MockMetrics)
	metrics.On("CargoDecayed", mock.MatchedBy(func(lost float64) bool {
		return lost > 0.999 && lost < 1.001
	})).Once()

	h.run(1, commands.NewDecayCargoCommandHandler(h.factory, h.world, metrics, h.logger))

	items := h.manifest(h.cart.ID()).Items()
	require.Len(t, items, 2)
	assert.InDelta(t, 9, items[0].Amount, 1e-9)
	assert.InDelta(t, 100, items[1].Amount, 1e-9)
	metrics.AssertExpectations(t)
}

func TestDecayCargoCommandHandler_DropsSpoiledItems(t *testing.T) {
	h := newHarness(t)
	h.seedManifest(h.cart.ID(), cargo.Item{ResourceID: "fish", Amount: 0.001, ShipmentID: kernel.NewUUID()})

	h.run(1, commands.NewDecayCargoCommandHandler(h.factory, h.world, nil, h.logger))

	assert.True(t, h.manifest(h.cart.ID()).IsEmpty())
}

func TestAggregateCargoCommandHandler_SummarisesLoad(t *testing.T) {
	h := newHarness(t)
	shipmentID := kernel.NewUUID()
	h.seedManifest(h.cart.ID(),
		cargo.Item{ResourceID: "fish", Amount: 20, ShipmentID: shipmentID},
		cargo.Item{ResourceID: "wood", Amount: 100, ShipmentID: shipmentID},
	)

	h.run(4, commands.NewAggregateCargoCommandHandler(h.factory, h.world, h.logger))

	m := h.manifest(h.cart.ID())
	assert.Equal(t, kernel.Tick(4), m.UpdatedTick())
	assert.Equal(t, 2, m.Load().ItemCount)
	assert.InDelta(t, 120, m.Load().Mass, 1e-9)
	assert.InDelta(t, 0.14, m.Load().Volume, 1e-9)
	assert.InDelta(t, 1200, m.Value().Value, 1e-9)
	assert.InDelta(t, 1200.0/121, m.Value().RaidAttractiveness, 1e-9)
	assert.Equal(t, cargo.EscortMedium, m.Value().EscortPriority)
}

func TestDecayCargoCommandHandler_SettlementCreditsWithdrawnAmount(t *testing.T) {
	h := newHarness(t)
	h.world.RemoveTransport(h.cart.ID())
	reefer := h.addTransport("reefer", 500, 5, transport.WithContainerSlots(
		transport.ContainerSlot{ID: "reefer-1", Tag: "cold", Volume: 1},
	))
	h.world.RemoveNode(h.site.ID())
	depot := h.addNode("depot", node.KindWarehouse, 50)
	h.world.AddStorehouse(depot.ID(), nil, nil)
	h.world.SetStock(h.warehouse.ID(), "fish", 100)
	o := h.reservedOrder(h.warehouse, depot, "fish", 100, 1)
	decay := commands.NewDecayCargoCommandHandler(h.factory, h.world, nil, h.logger)

	for tick := kernel.Tick(1); tick <= 5; tick++ {
		h.pass(tick)
		h.run(tick, decay)
	}
	items := h.manifest(reefer.ID()).Items()
	require.Len(t, items, 1)
	assert.Less(t, items[0].Amount, 100.0, "fish spoils in the hold")

	for tick := kernel.Tick(6); tick <= 8; tick++ {
		h.pass(tick)
		h.run(tick, decay)
	}
	assert.Equal(t, order.Delivered, h.order(o.ID()).Status())
	assert.InDelta(t, 100, h.stock(depot, "fish"), 1e-9, "credit follows the withdrawal, not the decayed manifest")
}
