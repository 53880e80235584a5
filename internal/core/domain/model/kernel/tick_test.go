package kernel_test

import (
	"testing"
	"time"

	"logistics/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
)

func TestTicksFor(t *testing.T) {
	assert.Equal(t, uint64(5), kernel.TicksFor(5*time.Second, time.Second))
	assert.Equal(t, uint64(6), kernel.TicksFor(5100*time.Millisecond, time.Second))
	assert.Equal(t, uint64(0), kernel.TicksFor(0, time.Second))
	assert.Equal(t, uint64(0), kernel.TicksFor(time.Second, 0))
}

func TestTick(t *testing.T) {
	tick := kernel.Tick(10)

	assert.Equal(t, kernel.Tick(15), tick.Add(5))
	assert.True(t, tick.Add(1).After(tick))
	assert.False(t, tick.After(tick))
	assert.Equal(t, time.Unix(20, 0), kernel.SimTime(tick, 2*time.Second))
}
