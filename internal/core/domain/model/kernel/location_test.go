package kernel_test

import (
	"math"
	"testing"

	"logistics/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	t.Run("valid coordinates", func(t *testing.T) {
		loc, err := kernel.NewLocation(1.5, -2, 3)

		require.NoError(t, err)
		require.NoError(t, loc.Validate())
		assert.InDelta(t, 1.5, loc.X(), 1e-9)
		assert.InDelta(t, -2, loc.Y(), 1e-9)
		assert.InDelta(t, 3, loc.Z(), 1e-9)
		assert.Equal(t, "Location(1.5,-2,3)", loc.String())
	})

	t.Run("rejects non finite coordinates", func(t *testing.T) {
		_, err := kernel.NewLocation(math.NaN(), 0, 0)
		require.Error(t, err)

		_, err = kernel.NewLocation(0, math.Inf(1), 0)
		require.Error(t, err)
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var loc kernel.Location
		require.ErrorIs(t, loc.Validate(), kernel.ErrLocationIsNotConstructed)
	})
}

func TestLocation_DistanceTo(t *testing.T) {
	a := kernel.MustNewLocation(0, 0, 0)
	b := kernel.MustNewLocation(30, 40, 0)

	d, err := a.DistanceTo(b)
	require.NoError(t, err)
	assert.InDelta(t, 50, d, 1e-9)

	back, err := b.DistanceTo(a)
	require.NoError(t, err)
	assert.InDelta(t, d, back, 1e-9)

	_, err = a.DistanceTo(kernel.Location{})
	require.ErrorIs(t, err, kernel.ErrLocationIsNotConstructed)
}

func TestLocation_Within(t *testing.T) {
	origin := kernel.MustNewLocation(0, 0, 0)

	near, err := origin.Within(kernel.MustNewLocation(3, 0, 0), 5)
	require.NoError(t, err)
	assert.True(t, near)

	edge, err := origin.Within(kernel.MustNewLocation(5, 0, 0), 5)
	require.NoError(t, err)
	assert.False(t, edge, "radius is exclusive")
}
