package jobs_test

import (
	"bytes"
	"log/slog"
	"testing"

	"logistics/internal/adapters/out/memory"
	"logistics/internal/core/application/usecases/queries"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusReportJob_LogsCounts(t *testing.T) {
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	for i := range 3 {
		o, err := order.NewOrder(kernel.NewUUID(), order.Request{
			Kind:        order.KindManual,
			Priority:    order.PriorityNormal,
			Source:      kernel.NewUUID(),
			Destination: kernel.NewUUID(),
			ResourceID:  "wood",
			Amount:      10,
			CreatedTick: kernel.Tick(i),
		})
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, o.BeginPlanning(0))
		}
		require.NoError(t, factory.Create().OrderRepository().Add(t.Context(), o))
	}

	var out bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	job := jobs.NewStatusReportJob(
		queries.NewGetActiveOrdersQueryHandler(factory),
		queries.NewGetShipmentsQueryHandler(factory),
		"@every 1m",
		logger,
	)

	require.NoError(t, job.Report(t.Context()))
	line := out.String()
	assert.Contains(t, line, `"active_orders":3`)
	assert.Contains(t, line, `"created":2`)
	assert.Contains(t, line, `"planning":1`)
	assert.Contains(t, line, `"open_shipments":0`)
	assert.Contains(t, line, `"component":"status_report_job"`)
}

func TestStatusReportJob_RejectsBadSchedule(t *testing.T) {
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	job := jobs.NewStatusReportJob(
		queries.NewGetActiveOrdersQueryHandler(factory),
		queries.NewGetShipmentsQueryHandler(factory),
		"every now and then",
		discard(),
	)
	assert.Error(t, job.Start())
}
