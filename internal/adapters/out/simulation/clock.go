// Package simulation holds the process-wide simulation clock and the flags that gate the
// logistics pipeline.
package simulation

import (
	"sync/atomic"
	"time"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
)

// Clock is the authoritative tick counter. Only the tick job advances it.
type Clock struct {
	tick         atomic.Uint64
	tickDuration time.Duration
}

func NewClock(start kernel.Tick, tickDuration time.Duration) *Clock {
	c := &Clock{tickDuration: tickDuration}
	c.tick.Store(uint64(start))
	return c
}

func (c *Clock) Now() kernel.Tick {
	return kernel.Tick(c.tick.Load())
}

func (c *Clock) TickDuration() time.Duration {
	return c.tickDuration
}

// Advance moves the clock one tick forward and returns the new tick.
func (c *Clock) Advance() kernel.Tick {
	return kernel.Tick(c.tick.Add(1))
}

// Gate carries the economy and recording flags.
type Gate struct {
	economy   atomic.Bool
	recording atomic.Bool
}

func NewGate(economyEnabled, recording bool) *Gate {
	g := &Gate{}
	g.economy.Store(economyEnabled)
	g.recording.Store(recording)
	return g
}

func (g *Gate) EconomyEnabled() bool { return g.economy.Load() }
func (g *Gate) Recording() bool      { return g.recording.Load() }

func (g *Gate) SetEconomyEnabled(v bool) { g.economy.Store(v) }
func (g *Gate) SetRecording(v bool)      { g.recording.Store(v) }

var (
	_ ports.Clock          = (*Clock)(nil)
	_ ports.SimulationGate = (*Gate)(nil)
)
