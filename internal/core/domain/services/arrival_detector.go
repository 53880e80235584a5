package services

import (
	"time"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/model/transport"

	"golang.org/x/time/rate"
)

// DefaultArrivalRadius is the distance under which a transport counts as arrived.
const DefaultArrivalRadius = 5.0

// ArrivalSignal names the evidence an arrival was detected from.
type ArrivalSignal int

const (
	NotArrived ArrivalSignal = iota
	ArrivedByUnloadingSignal
	ArrivedByProximity
	ArrivedByETA
)

func (s ArrivalSignal) String() string {
	switch s {
	case ArrivedByUnloadingSignal:
		return "unloading-signal"
	case ArrivedByProximity:
		return "proximity"
	case ArrivedByETA:
		return "eta"
	default:
		return "none"
	}
}

// Arrival is the outcome of one detection.
type Arrival struct {
	Signal ArrivalSignal
	// MissingSignals is set for physical shipments whose transport exposes neither an
	// unloading signal nor a position.
	MissingSignals bool
	// Warn is set when MissingSignals should be reported now; reports are throttled to
	// one per warning interval of simulated time.
	Warn bool
}

// Arrived reports whether any signal fired.
func (a Arrival) Arrived() bool {
	return a.Signal != NotArrived
}

// ArrivalDetector applies the arrival fallback chain: the transport's unloading signal,
// then proximity to the destination, then the estimated arrival tick. Abstract shipments
// use the ETA alone. Physical shipments fall back to the ETA only when their transport
// exposes no signal at all.
type ArrivalDetector struct {
	radius       float64
	tickDuration time.Duration
	warnings     *rate.Limiter
}

// NewArrivalDetector creates a detector that reports missing signals at most once per
// warnEvery of simulated time.
func NewArrivalDetector(radius float64, warnEvery, tickDuration time.Duration) *ArrivalDetector {
	if radius <= 0 {
		radius = DefaultArrivalRadius
	}
	return &ArrivalDetector{
		radius:       radius,
		tickDuration: tickDuration,
		warnings:     rate.NewLimiter(rate.Every(warnEvery), 1),
	}
}

// Detect evaluates a moving shipment. t may be nil for abstract shipments.
func (d *ArrivalDetector) Detect(s *shipment.Shipment, t *transport.Transport, destination *node.Node, now kernel.Tick) (Arrival, error) {
	etaReached := !s.ETA().After(now)

	if s.Mode() == shipment.Abstract || t == nil {
		if etaReached {
			return Arrival{Signal: ArrivedByETA}, nil
		}
		return Arrival{}, nil
	}

	if unloading, ok := t.UnloadingSignal(); ok && unloading {
		return Arrival{Signal: ArrivedByUnloadingSignal}, nil
	}

	if pos, ok := t.Position(); ok {
		near, err := pos.Within(destination.Position(), d.radius)
		if err != nil {
			return Arrival{}, err
		}
		if near {
			return Arrival{Signal: ArrivedByProximity}, nil
		}
	}

	if t.HasArrivalSignals() {
		return Arrival{}, nil
	}

	out := Arrival{
		MissingSignals: true,
		Warn:           d.warnings.AllowN(kernel.SimTime(now, d.tickDuration), 1),
	}
	if etaReached {
		out.Signal = ArrivedByETA
	}
	return out, nil
}
