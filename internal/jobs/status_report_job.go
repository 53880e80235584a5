package jobs

import (
	"context"
	"log/slog"

	"logistics/internal/core/application/usecases/queries"
	"logistics/internal/core/domain/model/shipment"

	"github.com/robfig/cron/v3"
)

// StatusReportJob periodically logs how many orders are open and how many shipments
// are on the road.
type StatusReportJob struct {
	orders    queries.GetActiveOrdersQueryHandler
	shipments queries.GetShipmentsQueryHandler
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewStatusReportJob creates the job for a cron schedule such as "@every 1m".
func NewStatusReportJob(
	orders queries.GetActiveOrdersQueryHandler,
	shipments queries.GetShipmentsQueryHandler,
	schedule string,
	logger *slog.Logger,
) *StatusReportJob {
	return &StatusReportJob{
		orders:    orders,
		shipments: shipments,
		schedule:  schedule,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "status_report_job"),
	}
}

// Report logs one status line.
func (j *StatusReportJob) Report(ctx context.Context) error {
	active, err := j.orders.Handle(ctx, queries.NewGetActiveOrdersQuery())
	if err != nil {
		return err
	}
	query, err := queries.NewGetShipmentsQuery(
		shipment.Created, shipment.Loading, shipment.InTransit, shipment.Rerouting, shipment.Unloading)
	if err != nil {
		return err
	}
	open, err := j.shipments.Handle(ctx, query)
	if err != nil {
		return err
	}

	byStatus := make(map[string]int)
	for _, o := range active {
		byStatus[o.Status]++
	}
	moving := 0
	for _, s := range open {
		if s.DepartureTick != nil {
			moving++
		}
	}
	j.logger.InfoContext(ctx, "Logistics status",
		"active_orders", len(active),
		"created", byStatus["Created"],
		"planning", byStatus["Planning"],
		"reserved", byStatus["Reserved"],
		"dispatched", byStatus["Dispatched"],
		"open_shipments", len(open),
		"departed", moving)
	return nil
}

// Start schedules the report.
func (j *StatusReportJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if err := j.Report(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Status report job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Status report job started", "schedule", j.schedule)
	return nil
}

// Stop stops the status report job.
func (j *StatusReportJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Status report job stopped")
}
