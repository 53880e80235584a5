// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"time"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "logistics"
	subsystem = "pipeline"
)

// Recorder implements ports.MetricsRecorder with Prometheus collectors.
type Recorder struct {
	ordersCreated      *prometheus.CounterVec
	ordersFailed       *prometheus.CounterVec
	ordersDelivered    prometheus.Counter
	amountDelivered    prometheus.Counter
	ordersConsolidated prometheus.Counter
	holdsExpired       prometheus.Counter
	transitions        *prometheus.CounterVec
	cargoDecayed       prometheus.Counter
	stageDuration      *prometheus.HistogramVec
	stagesTotal        *prometheus.CounterVec
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Orders created by kind",
			},
			[]string{"kind"},
		),
		ordersFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_failed_total",
				Help:      "Orders failed by reason",
			},
			[]string{"reason"},
		),
		ordersDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_delivered_total",
			Help:      "Orders settled at their destination",
		}),
		amountDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "delivered_amount_total",
			Help:      "Resource units credited at destinations",
		}),
		ordersConsolidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_consolidated_total",
			Help:      "Orders merged into an earlier order for the same key",
		}),
		holdsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reservations_expired_total",
			Help:      "Reservations released after their expiry tick",
		}),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipment_transitions_total",
				Help:      "Shipment status changes by target status",
			},
			[]string{"status"},
		),
		cargoDecayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cargo_decayed_total",
			Help:      "Cargo units lost to perishing in transit",
		}),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration distribution",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"stage", "status"},
		),
		stagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stages_total",
				Help:      "Pipeline stage runs by stage and status",
			},
			[]string{"stage", "status"},
		),
	}
}

// Register adds every collector to reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.ordersCreated,
		r.ordersFailed,
		r.ordersDelivered,
		r.amountDelivered,
		r.ordersConsolidated,
		r.holdsExpired,
		r.transitions,
		r.cargoDecayed,
		r.stageDuration,
		r.stagesTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) OrderCreated(kind string) {
	r.ordersCreated.WithLabelValues(kind).Inc()
}

func (r *Recorder) OrderFailed(reason kernel.FailureReason) {
	r.ordersFailed.WithLabelValues(reason.String()).Inc()
}

func (r *Recorder) OrderDelivered(amount float64) {
	r.ordersDelivered.Inc()
	if amount > 0 {
		r.amountDelivered.Add(amount)
	}
}

func (r *Recorder) OrdersConsolidated(n int) {
	if n > 0 {
		r.ordersConsolidated.Add(float64(n))
	}
}

func (r *Recorder) ReservationsExpired(n int) {
	if n > 0 {
		r.holdsExpired.Add(float64(n))
	}
}

func (r *Recorder) ShipmentTransition(status string) {
	r.transitions.WithLabelValues(status).Inc()
}

func (r *Recorder) StageCompleted(stage string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
	r.stagesTotal.WithLabelValues(stage, status).Inc()
}

func (r *Recorder) CargoDecayed(amount float64) {
	if amount > 0 {
		r.cargoDecayed.Add(amount)
	}
}
