package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
)

// RerouteShipmentsCommandHandler keeps moving shipments on usable routes.
//
// It runs in three passes:
//  1. Valid routes whose endpoints became blocked are invalidated, and routes past their
//     cache TTL are expired. Only the status changes.
//  2. Every InTransit or Rerouting shipment bound to an Invalid or Expired route gets a
//     fresh route record and moves to Rerouting. When no route can be found the shipment
//     and its orders fail with RouteUnavailable.
//  3. Invalid and Expired routes no live shipment points at are deleted.
type RerouteShipmentsCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	nodes      ports.NodeDirectory
	conditions ports.RouteConditions
	calculator services.RouteCalculator
	policy     Policy
	metrics    ports.MetricsRecorder
	logger     *slog.Logger
}

func NewRerouteShipmentsCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	nodes ports.NodeDirectory,
	conditions ports.RouteConditions,
	calculator services.RouteCalculator,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *RerouteShipmentsCommandHandler {
	return &RerouteShipmentsCommandHandler{
		uowFactory: uowFactory,
		nodes:      nodes,
		conditions: conditions,
		calculator: calculator,
		policy:     policy,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "rerouter"),
	}
}

func (h *RerouteShipmentsCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	now := cmd.Tick()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	routes := uow.RouteRepository()
	known, err := routes.List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[kernel.UUID]*route.Route, len(known))
	invalidated, expired := 0, 0
	for _, r := range known {
		byID[r.ID()] = r
		if r.Status() != route.Valid {
			continue
		}
		blocked, blockedErr := h.conditions.Blocked(ctx, r.Key().Source, r.Key().Destination)
		if blockedErr != nil {
			return blockedErr
		}
		switch {
		case blocked:
			if err = r.Invalidate(); err != nil {
				return err
			}
			invalidated++
		case r.IsStale(now):
			if err = r.Expire(); err != nil {
				return err
			}
			expired++
		default:
			continue
		}
		if err = routes.Update(ctx, r); err != nil {
			return err
		}
	}

	shipments, err := uow.ShipmentRepository().List(ctx)
	if err != nil {
		return err
	}
	resolver := newRouteResolver(routes, h.nodes, h.conditions, h.calculator, h.policy)
	manifests := newManifestSet(uow.ManifestRepository())
	referenced := make(map[kernel.UUID]bool)
	rerouted, failed := 0, 0
	for _, s := range shipments {
		if s.IsTerminal() || s.Route() == nil {
			continue
		}
		current, bound := byID[*s.Route()]
		if !s.Status().IsMoving() || (bound && current.Status() == route.Valid) {
			referenced[*s.Route()] = true
			continue
		}

		r, reason, resolveErr := resolver.resolve(ctx, s, now)
		if resolveErr != nil {
			return resolveErr
		}
		if reason != kernel.FailureNone {
			if reason == kernel.FailureInvalidSource {
				reason = kernel.FailureRouteUnavailable
			}
			h.logger.InfoContext(ctx, "shipment cannot be rerouted",
				"shipment", s.ID().String(), "reason", reason.String())
			if err = failShipment(ctx, uow, s, reason, manifests, h.metrics); err != nil {
				return err
			}
			failed++
			continue
		}

		if err = s.Reroute(r.ID(), rerouteETA(s, r, now)); err != nil {
			return err
		}
		if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
			return err
		}
		h.metrics.ShipmentTransition(s.Status().String())
		referenced[r.ID()] = true
		rerouted++
	}

	removed := 0
	for _, r := range known {
		if r.Status() == route.Valid || referenced[r.ID()] {
			continue
		}
		if err = routes.Remove(ctx, r.ID()); err != nil {
			return err
		}
		removed++
	}

	if err = manifests.flush(ctx); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if invalidated+expired+rerouted+failed+removed > 0 {
		h.logger.DebugContext(ctx, "routes maintained", "tick", uint64(now),
			"invalidated", invalidated, "expired", expired,
			"rerouted", rerouted, "failed", failed, "removed", removed)
	}
	return nil
}

// rerouteETA measures the replacement route from the original departure and never
// schedules arrival in the past.
func rerouteETA(s *shipment.Shipment, r *route.Route, now kernel.Tick) kernel.Tick {
	if dep := s.DepartureTick(); dep != nil {
		return max(dep.Add(r.TransitTicks()), now)
	}
	return now.Add(r.TransitTicks())
}
