package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"
)

// CreateOrderCommandHandler registers manual orders. The resource must resolve against the
// live catalog and both endpoints must exist when the order is created; the planner
// re-checks them on the next tick.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, catalogs, nodes, clock, metrics, logger)
//	cmd, _ := NewCreateOrderCommand(kernel.NewUUID(), warehouseID, siteID, "stone", 40)
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	catalogs   ports.CatalogProvider
	nodes      ports.NodeDirectory
	clock      ports.Clock
	metrics    ports.MetricsRecorder
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalogs ports.CatalogProvider,
	nodes ports.NodeDirectory,
	clock ports.Clock,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		uowFactory: uowFactory,
		catalogs:   catalogs,
		nodes:      nodes,
		clock:      clock,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "manual_orders"),
	}
}

// Handle validates the command against the world and stores the order in Created status.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	index, ok := h.catalogs.Catalog().ResolveResource(cmd.ResourceID())
	if !ok {
		return errs.NewObjectNotFoundError("resource", cmd.ResourceID())
	}
	if _, err := h.nodes.Get(ctx, cmd.Source()); err != nil {
		return err
	}
	if _, err := h.nodes.Get(ctx, cmd.Destination()); err != nil {
		return err
	}

	o, err := order.NewOrder(cmd.OrderID(), order.Request{
		Kind:          order.KindManual,
		Priority:      cmd.Priority(),
		Source:        cmd.Source(),
		Destination:   cmd.Destination(),
		ResourceID:    cmd.ResourceID(),
		ResourceIndex: index,
		Amount:        cmd.Amount(),
		CreatedTick:   h.clock.Now(),
	})
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.metrics.OrderCreated(o.Kind().String())
	h.logger.InfoContext(ctx, "manual order created",
		"order", o.ID().String(), "resource", o.ResourceID(), "amount", o.Requested())
	return nil
}
