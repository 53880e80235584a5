package reservation_test

import (
	"testing"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventory(t *testing.T, amount float64, now kernel.Tick, ttl uint64) *reservation.Reservation {
	t.Helper()
	r, err := reservation.NewInventory(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "wood", amount, now, ttl)
	require.NoError(t, err)
	return r
}

func TestNewInventory(t *testing.T) {
	t.Run("should create active hold with expiry", func(t *testing.T) {
		orderID, nodeID := kernel.NewUUID(), kernel.NewUUID()

		r, err := reservation.NewInventory(kernel.NewUUID(), orderID, nodeID, "wood", 100, 10, 1000)

		require.NoError(t, err)
		require.NoError(t, r.Validate())
		assert.Equal(t, reservation.Inventory, r.Kind())
		assert.Equal(t, reservation.Active, r.Status())
		assert.True(t, r.OrderID().IsEqual(orderID))
		assert.True(t, r.HolderID().IsEqual(nodeID))
		assert.Equal(t, "wood", r.ResourceID())
		assert.InDelta(t, 100, r.Amount(), 1e-9)
		assert.Equal(t, kernel.Tick(10), r.CreatedTick())
		assert.Equal(t, kernel.Tick(1010), r.ExpiryTick())
	})

	t.Run("should join validation errors", func(t *testing.T) {
		_, err := reservation.NewInventory(kernel.UUID{}, kernel.NewUUID(), kernel.NewUUID(), "", 0, 0, 0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "resource id")
		assert.Contains(t, err.Error(), "amount is invalid")
		assert.Contains(t, err.Error(), "ttl is invalid")
	})
}

func TestNewCapacity(t *testing.T) {
	t.Run("should accept a hold that fits", func(t *testing.T) {
		r, err := reservation.NewCapacity(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 100, 0.1, 200, 2, 0, 1000)

		require.NoError(t, err)
		assert.Equal(t, reservation.Capacity, r.Kind())
		assert.InDelta(t, 100, r.Mass(), 1e-9)
		assert.InDelta(t, 0.1, r.Volume(), 1e-9)
	})

	t.Run("should reject mass over free capacity", func(t *testing.T) {
		_, err := reservation.NewCapacity(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 201, 0.1, 200, 2, 0, 1000)

		assert.ErrorIs(t, err, reservation.ErrExceedsFreeCapacity)
	})

	t.Run("should reject volume over free capacity", func(t *testing.T) {
		_, err := reservation.NewCapacity(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 10, 3, 200, 2, 0, 1000)

		assert.ErrorIs(t, err, reservation.ErrExceedsFreeCapacity)
	})

	t.Run("should reject empty hold", func(t *testing.T) {
		_, err := reservation.NewCapacity(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 0, 0, 200, 2, 0, 1000)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestNewService(t *testing.T) {
	r, err := reservation.NewService(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), node.ServiceUnload, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, reservation.Service, r.Kind())
	assert.Equal(t, node.ServiceUnload, r.ServiceType())

	_, err = reservation.NewService(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), node.ServiceUnknown, 3, 50)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestReservation_Commit(t *testing.T) {
	t.Run("should commit the withdrawn amount once", func(t *testing.T) {
		r := newInventory(t, 100, 0, 10)

		require.NoError(t, r.Commit(40))

		assert.Equal(t, reservation.Committed, r.Status())
		assert.InDelta(t, 40, r.CommittedAmount(), 1e-9)
		require.Error(t, r.Commit(40))
		assert.InDelta(t, 40, r.CommittedAmount(), 1e-9)
	})

	t.Run("should reject amounts outside the hold", func(t *testing.T) {
		r := newInventory(t, 100, 0, 10)

		assert.ErrorIs(t, r.Commit(0), errs.ErrValueIsOutOfRange)
		assert.ErrorIs(t, r.Commit(101), errs.ErrValueIsOutOfRange)
		assert.Equal(t, reservation.Active, r.Status())
	})

	t.Run("should reject non-inventory holds", func(t *testing.T) {
		r, err := reservation.NewService(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), node.ServiceLoad, 0, 10)
		require.NoError(t, err)

		require.Error(t, r.Commit(1))
	})

	t.Run("should reject expired hold", func(t *testing.T) {
		r := newInventory(t, 100, 0, 10)
		require.True(t, r.ExpireAt(11))

		require.Error(t, r.Commit(10))
	})
}

func TestReservation_Release(t *testing.T) {
	t.Run("should release active and committed holds", func(t *testing.T) {
		active := newInventory(t, 1, 0, 10)
		committed := newInventory(t, 1, 0, 10)
		require.NoError(t, committed.Commit(1))

		active.Release()
		committed.Release()

		assert.Equal(t, reservation.Released, active.Status())
		assert.Equal(t, reservation.Released, committed.Status())
	})

	t.Run("should be idempotent", func(t *testing.T) {
		r := newInventory(t, 1, 0, 10)
		r.Release()
		r.Release()
		assert.Equal(t, reservation.Released, r.Status())
	})

	t.Run("should leave expired hold expired", func(t *testing.T) {
		r := newInventory(t, 1, 0, 10)
		require.True(t, r.ExpireAt(11))

		r.Release()

		assert.Equal(t, reservation.Expired, r.Status())
		assert.True(t, r.IsDisposable())
	})
}

func TestReservation_ExpireAt(t *testing.T) {
	r := newInventory(t, 1, 5, 10)

	assert.False(t, r.ExpireAt(15), "expiry tick itself is still valid")
	assert.Equal(t, reservation.Active, r.Status())

	assert.True(t, r.ExpireAt(16))
	assert.Equal(t, reservation.Expired, r.Status())
	assert.False(t, r.ExpireAt(17))

	committed := newInventory(t, 1, 0, 1)
	require.NoError(t, committed.Commit(1))
	assert.False(t, committed.ExpireAt(100))
	assert.Equal(t, reservation.Committed, committed.Status())
}

func TestRestoreReservation(t *testing.T) {
	r := newInventory(t, 100, 1, 10)
	require.NoError(t, r.Commit(60))

	restored, err := reservation.RestoreReservation(r.State())

	require.NoError(t, err)
	assert.Equal(t, r.State(), restored.State())

	s := r.State()
	s.Kind = reservation.KindUnknown
	_, err = reservation.RestoreReservation(s)
	require.Error(t, err)
}
