package world_test

import (
	"testing"

	"logistics/internal/adapters/out/world"
	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/transport"
	"logistics/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	cat, err := catalog.NewCatalog([]catalog.ItemSpec{{ID: "wood", Mass: 1}}, []string{"wood"})
	require.NoError(t, err)
	return world.New(cat)
}

func addNode(t *testing.T, w *world.World, name string) *node.Node {
	t.Helper()
	n, err := node.NewNode(kernel.NewUUID(), name, node.KindWarehouse, kernel.MustNewLocation(0, 0, 0),
		node.Services{LoadSlots: 1, UnloadSlots: 1}, node.Attributes{})
	require.NoError(t, err)
	w.AddNode(n)
	return n
}

func TestStorehouses_WithdrawIsCappedByStock(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	n := addNode(t, w, "depot")
	w.AddStorehouse(n.ID(), nil, map[string]float64{"wood": 30})
	stores := w.Storehouses()

	got, err := stores.Withdraw(ctx, n.ID(), "wood", 20)
	require.NoError(t, err)
	assert.InDelta(t, 20, got, 1e-9)

	got, err = stores.Withdraw(ctx, n.ID(), "wood", 20)
	require.NoError(t, err)
	assert.InDelta(t, 10, got, 1e-9)

	got, err = stores.Withdraw(ctx, kernel.NewUUID(), "wood", 20)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = stores.Withdraw(ctx, n.ID(), "wood", -1)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStorehouses_DepositRespectsCapacity(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	n := addNode(t, w, "depot")
	w.AddStorehouse(n.ID(), map[string]float64{"wood": 100}, map[string]float64{"wood": 90})
	stores := w.Storehouses()

	got, err := stores.Deposit(ctx, n.ID(), "wood", 25)
	require.NoError(t, err)
	assert.InDelta(t, 10, got, 1e-9)

	got, err = stores.Deposit(ctx, n.ID(), "stone", 25)
	require.NoError(t, err)
	assert.InDelta(t, 25, got, 1e-9, "resources without capacity are unbounded")

	s, err := stores.Get(ctx, n.ID())
	require.NoError(t, err)
	assert.InDelta(t, 100, s.StockOf("wood"), 1e-9)
	assert.InDelta(t, 25, s.StockOf("stone"), 1e-9)
}

func TestStorehouses_SnapshotsAreCopies(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	n := addNode(t, w, "depot")
	w.AddStorehouse(n.ID(), nil, map[string]float64{"wood": 30})

	s, err := w.Storehouses().Get(ctx, n.ID())
	require.NoError(t, err)
	s.Stock["wood"] = 0

	again, err := w.Storehouses().Get(ctx, n.ID())
	require.NoError(t, err)
	assert.InDelta(t, 30, again.StockOf("wood"), 1e-9)
}

func TestWorld_RemoveNodeDropsAttachments(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	n := addNode(t, w, "depot")
	w.AddStorehouse(n.ID(), nil, nil)
	w.AddConstructionSite(n.ID(), map[string]float64{"wood": 10})

	w.RemoveNode(n.ID())

	_, err := w.Nodes().Get(ctx, n.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	_, err = w.Storehouses().Get(ctx, n.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	_, err = w.Construction().Get(ctx, n.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestConstructionLedger_AddDelivered(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	n := addNode(t, w, "site")
	w.AddConstructionSite(n.ID(), map[string]float64{"wood": 10})
	ledger := w.Construction()

	require.NoError(t, ledger.AddDelivered(ctx, n.ID(), "wood", 4))
	site, err := ledger.Get(ctx, n.ID())
	require.NoError(t, err)
	assert.InDelta(t, 6, site.Shortfall("wood"), 1e-9)

	require.ErrorIs(t, ledger.AddDelivered(ctx, kernel.NewUUID(), "wood", 1), errs.ErrObjectNotFound)
}

func TestTransportDirectory_Available(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	var ids []kernel.UUID
	for _, name := range []string{"a", "b", "c"} {
		tr, err := transport.NewTransport(kernel.NewUUID(), name, 100, 1)
		require.NoError(t, err)
		w.PutTransport(tr)
		ids = append(ids, tr.ID())
	}
	w.SetAvailable(ids[1], false)

	available, err := w.Transports().Available(ctx)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, ids[0], available[0].ID())
	assert.Equal(t, ids[2], available[1].ID())

	_, err = w.Transports().Get(ctx, ids[1])
	require.NoError(t, err, "unavailable transports still exist")

	w.RemoveTransport(ids[0])
	_, err = w.Transports().Get(ctx, ids[0])
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestRouteConditions_BlockedBothWays(t *testing.T) {
	ctx := t.Context()
	w := newWorld(t)
	a, b := kernel.NewUUID(), kernel.NewUUID()
	w.SetBlocked(a, b, true)

	for _, p := range [][2]kernel.UUID{{a, b}, {b, a}} {
		blocked, err := w.Conditions().Blocked(ctx, p[0], p[1])
		require.NoError(t, err)
		assert.True(t, blocked)
	}

	w.SetBlocked(b, a, false)
	blocked, err := w.Conditions().Blocked(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, blocked)
}
