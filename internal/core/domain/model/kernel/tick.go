package kernel

import (
	"math"
	"time"
)

// Tick is one step of the authoritative simulation clock.
type Tick uint64

// Add returns t advanced by n ticks.
func (t Tick) Add(n uint64) Tick {
	return t + Tick(n)
}

// After reports whether t is strictly later than other.
func (t Tick) After(other Tick) bool {
	return t > other
}

// TicksFor converts a duration to whole ticks, rounding up so a non-zero duration never
// collapses to zero ticks.
func TicksFor(d time.Duration, tickDuration time.Duration) uint64 {
	if d <= 0 || tickDuration <= 0 {
		return 0
	}
	return uint64(math.Ceil(float64(d) / float64(tickDuration)))
}

// SimTime maps a tick onto a synthetic wall-clock instant so libraries driven by
// time.Time (rate limiters) follow simulated time instead of real time.
func SimTime(t Tick, tickDuration time.Duration) time.Time {
	return time.Unix(0, 0).Add(time.Duration(t) * tickDuration)
}
