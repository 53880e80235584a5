package ports

import (
	"time"

	"logistics/internal/core/domain/model/kernel"
)

// MetricsRecorder receives pipeline counters. Implementations must be safe for
// concurrent use.
type MetricsRecorder interface {
	OrderCreated(kind string)
	OrderFailed(reason kernel.FailureReason)
	OrderDelivered(amount float64)
	OrdersConsolidated(n int)
	ReservationsExpired(n int)
	ShipmentTransition(status string)
	StageCompleted(stage string, d time.Duration, err error)
	CargoDecayed(amount float64)
}
