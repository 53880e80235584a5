package commands

import (
	"context"
	"errors"
	"log/slog"

	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
)

// PlanOrdersCommandHandler validates Created orders, consolidates duplicates and moves
// the survivors to Planning.
//
// An order fails instead of being dropped when:
//   - its source node no longer exists (InvalidSource)
//   - its destination node no longer exists (InvalidDestination)
//   - its resource id no longer resolves against the catalog (InvalidSource)
//   - no route connects the endpoints under the routing profile (RouteUnavailable)
type PlanOrdersCommandHandler struct {
	uowFactory   ports.UnitOfWorkFactory
	catalogs     ports.CatalogProvider
	nodes        ports.NodeDirectory
	conditions   ports.RouteConditions
	calculator   services.RouteCalculator
	consolidator services.OrderConsolidator
	policy       Policy
	metrics      ports.MetricsRecorder
	logger       *slog.Logger
}

func NewPlanOrdersCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalogs ports.CatalogProvider,
	nodes ports.NodeDirectory,
	conditions ports.RouteConditions,
	calculator services.RouteCalculator,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *PlanOrdersCommandHandler {
	return &PlanOrdersCommandHandler{
		uowFactory:   uowFactory,
		catalogs:     catalogs,
		nodes:        nodes,
		conditions:   conditions,
		calculator:   calculator,
		consolidator: services.NewOrderConsolidator(),
		policy:       policy,
		metrics:      metricsOrNop(metrics),
		logger:       logger.With("component", "planner"),
	}
}

func (h *PlanOrdersCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := uow.OrderRepository().List(ctx, order.Created)
	if err != nil {
		return err
	}

	cat := h.catalogs.Catalog()
	valid := make([]*order.Order, 0, len(created))
	failed := 0
	for _, o := range created {
		reason, checkErr := h.check(ctx, cat, o)
		if checkErr != nil {
			return checkErr
		}
		if reason != kernel.FailureNone {
			if err = failOrder(ctx, uow, o, reason, h.metrics); err != nil {
				return err
			}
			failed++
			h.logger.InfoContext(ctx, "order failed in planning",
				"order", o.ID().String(), "reason", reason.String())
			continue
		}
		valid = append(valid, o)
	}

	kept, merged, err := h.consolidator.Consolidate(valid)
	if err != nil {
		return err
	}
	for _, o := range merged {
		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
	}
	for _, o := range kept {
		if err = o.BeginPlanning(o.ResourceIndex()); err != nil {
			return err
		}
		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if len(merged) > 0 {
		h.metrics.OrdersConsolidated(len(merged))
	}
	if len(created) > 0 {
		h.logger.DebugContext(ctx, "orders planned", "tick", uint64(cmd.Tick()),
			"planned", len(kept), "merged", len(merged), "failed", failed)
	}
	return nil
}

// check returns the failure reason for an order, or FailureNone when it may proceed. It
// also refreshes a stale resource-type index.
func (h *PlanOrdersCommandHandler) check(ctx context.Context, cat *catalog.Catalog, o *order.Order) (kernel.FailureReason, error) {
	source, err := h.nodes.Get(ctx, o.Source())
	if isNotFound(err) {
		return kernel.FailureInvalidSource, nil
	}
	if err != nil {
		return kernel.FailureNone, err
	}
	destination, err := h.nodes.Get(ctx, o.Destination())
	if isNotFound(err) {
		return kernel.FailureInvalidDestination, nil
	}
	if err != nil {
		return kernel.FailureNone, err
	}

	if id, ok := cat.ResourceID(o.ResourceIndex()); !ok || id != o.ResourceID() {
		index, resolved := cat.ResolveResource(o.ResourceID())
		if !resolved {
			return kernel.FailureInvalidSource, nil
		}
		if err = o.RefreshResourceIndex(index); err != nil {
			return kernel.FailureNone, err
		}
	}

	return routeAvailability(ctx, h.conditions, h.calculator, source, destination, h.policy)
}

// routeAvailability reports RouteUnavailable when the connection is blocked or the
// profile rejects an endpoint.
func routeAvailability(
	ctx context.Context,
	conditions ports.RouteConditions,
	calculator services.RouteCalculator,
	source, destination *node.Node,
	policy Policy,
) (kernel.FailureReason, error) {
	blocked, err := conditions.Blocked(ctx, source.ID(), destination.ID())
	if err != nil {
		return kernel.FailureNone, err
	}
	if blocked {
		return kernel.FailureRouteUnavailable, nil
	}
	if _, err = calculator.Estimate(source, destination, policy.RouteProfile); err != nil {
		if errors.Is(err, services.ErrRouteUnavailable) {
			return kernel.FailureRouteUnavailable, nil
		}
		return kernel.FailureNone, err
	}
	return kernel.FailureNone, nil
}
