package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"logistics/internal/adapters/out/metrics"
	"logistics/internal/core/domain/model/kernel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegisteredRecorder(t *testing.T) (*metrics.Recorder, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder()
	require.NoError(t, rec.Register(reg))
	return rec, reg
}

func TestRecorder_RegisterTwiceFails(t *testing.T) {
	rec, reg := newRegisteredRecorder(t)
	assert.Error(t, rec.Register(reg))
}

func TestRecorder_CountsOrders(t *testing.T) {
	rec, reg := newRegisteredRecorder(t)

	rec.OrderCreated("Supply")
	rec.OrderCreated("Supply")
	rec.OrderCreated("Manual")
	rec.OrderFailed(kernel.FailureNoCarrier)
	rec.OrderDelivered(60)
	rec.OrderDelivered(40)
	rec.OrdersConsolidated(2)
	rec.OrdersConsolidated(0)

	expected := `
# HELP logistics_pipeline_orders_created_total Orders created by kind
# TYPE logistics_pipeline_orders_created_total counter
logistics_pipeline_orders_created_total{kind="Manual"} 1
logistics_pipeline_orders_created_total{kind="Supply"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "logistics_pipeline_orders_created_total"))

	count, err := testutil.GatherAndCount(reg, "logistics_pipeline_orders_failed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		if m := f.GetMetric(); len(m) == 1 && m[0].GetCounter() != nil {
			values[f.GetName()] = m[0].GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 2, values["logistics_pipeline_orders_delivered_total"], 1e-9)
	assert.InDelta(t, 100, values["logistics_pipeline_delivered_amount_total"], 1e-9)
	assert.InDelta(t, 2, values["logistics_pipeline_orders_consolidated_total"], 1e-9)
}

func TestRecorder_StagesAndShipments(t *testing.T) {
	rec, reg := newRegisteredRecorder(t)

	rec.StageCompleted("planner", 3*time.Millisecond, nil)
	rec.StageCompleted("planner", time.Millisecond, errors.New("boom"))
	rec.ShipmentTransition("InTransit")
	rec.ShipmentTransition("Delivered")
	rec.ReservationsExpired(3)
	rec.CargoDecayed(1.5)
	rec.CargoDecayed(-1)

	count, err := testutil.GatherAndCount(reg, "logistics_pipeline_stages_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "logistics_pipeline_shipment_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "logistics_pipeline_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP logistics_pipeline_cargo_decayed_total Cargo units lost to perishing in transit
# TYPE logistics_pipeline_cargo_decayed_total counter
logistics_pipeline_cargo_decayed_total 1.5
# HELP logistics_pipeline_reservations_expired_total Reservations released after their expiry tick
# TYPE logistics_pipeline_reservations_expired_total counter
logistics_pipeline_reservations_expired_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"logistics_pipeline_cargo_decayed_total", "logistics_pipeline_reservations_expired_total"))
}
