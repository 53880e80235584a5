package postgres_test

import (
	"testing"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"

	"github.com/stretchr/testify/require"
)

// fixture is one dispatched order with its hold, shipment, route and manifest.
type fixture struct {
	source, destination, transportID kernel.UUID

	order    *order.Order
	hold     *reservation.Reservation
	shipment *shipment.Shipment
	route    *route.Route
	manifest *cargo.Manifest
}

var cautious = route.Profile{RiskTolerance: 0.25, RequiredServices: node.FlagLoading | node.FlagUnloading}

func newFixture(t *testing.T, created kernel.Tick) *fixture {
	t.Helper()
	f := &fixture{
		source:      kernel.NewUUID(),
		destination: kernel.NewUUID(),
		transportID: kernel.NewUUID(),
	}

	var err error
	f.order, err = order.NewOrder(kernel.NewUUID(), order.Request{
		Kind:        order.KindSupply,
		Priority:    order.PriorityHigh,
		Source:      f.source,
		Destination: f.destination,
		ResourceID:  "wood",
		Amount:      100,
		CreatedTick: created,
	})
	require.NoError(t, err)
	require.NoError(t, f.order.BeginPlanning(0))
	require.NoError(t, f.order.Reserve(100))

	f.hold, err = reservation.NewInventory(kernel.NewUUID(), f.order.ID(), f.source, "wood", 100, created, 50)
	require.NoError(t, err)

	f.shipment, err = shipment.NewShipment(kernel.NewUUID(), shipment.Params{
		TransportID: &f.transportID,
		Source:      f.source,
		Destination: f.destination,
		Mode:        shipment.Physical,
		Profile:     cautious,
		Allocations: []shipment.Allocation{{OrderID: f.order.ID(), ResourceID: "wood", Requested: 100, ContainerSlot: "bay-1"}},
		CreatedTick: created,
	})
	require.NoError(t, err)
	require.NoError(t, f.order.Dispatch(f.transportID, f.shipment.ID()))

	f.route = newRoute(t, route.Key{Source: f.source, Destination: f.destination, Profile: cautious}, created)

	f.manifest, err = cargo.NewManifest(f.transportID)
	require.NoError(t, err)
	require.NoError(t, f.manifest.Add(cargo.Item{ResourceID: "wood", Amount: 60, ShipmentID: f.shipment.ID(), ContainerSlot: "bay-1"}))
	require.NoError(t, f.manifest.Add(cargo.Item{ResourceID: "wood", Amount: 40, ShipmentID: f.shipment.ID()}))
	return f
}

func newRoute(t *testing.T, key route.Key, computed kernel.Tick) *route.Route {
	t.Helper()
	r, err := route.NewRoute(kernel.NewUUID(), key, route.Estimate{Distance: 50, Cost: 55, TransitTicks: 5}, computed, 10)
	require.NoError(t, err)
	return r
}
