package commands

import (
	"context"
	"errors"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
)

// RouteShipmentsCommandHandler binds a route to every shipment that has none yet and sets
// its estimated arrival to now plus the route's transit time. Routes are taken from the
// cache when a usable one exists for the shipment's (source, destination, profile) key.
type RouteShipmentsCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	nodes      ports.NodeDirectory
	conditions ports.RouteConditions
	calculator services.RouteCalculator
	policy     Policy
	metrics    ports.MetricsRecorder
	logger     *slog.Logger
}

func NewRouteShipmentsCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	nodes ports.NodeDirectory,
	conditions ports.RouteConditions,
	calculator services.RouteCalculator,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *RouteShipmentsCommandHandler {
	return &RouteShipmentsCommandHandler{
		uowFactory: uowFactory,
		nodes:      nodes,
		conditions: conditions,
		calculator: calculator,
		policy:     policy,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "router"),
	}
}

func (h *RouteShipmentsCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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

	all, err := uow.ShipmentRepository().List(ctx)
	if err != nil {
		return err
	}

	resolver := newRouteResolver(uow.RouteRepository(), h.nodes, h.conditions, h.calculator, h.policy)
	manifests := newManifestSet(uow.ManifestRepository())
	routed, failed := 0, 0
	for _, s := range all {
		if s.IsTerminal() || s.Route() != nil {
			continue
		}

		r, reason, resolveErr := resolver.resolve(ctx, s, now)
		if resolveErr != nil {
			return resolveErr
		}
		if reason != kernel.FailureNone {
			h.logger.InfoContext(ctx, "shipment cannot be routed",
				"shipment", s.ID().String(), "reason", reason.String())
			if err = failShipment(ctx, uow, s, reason, manifests, h.metrics); err != nil {
				return err
			}
			failed++
			continue
		}

		if err = s.BindRoute(r.ID(), now.Add(r.TransitTicks())); err != nil {
			return err
		}
		if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
			return err
		}
		routed++
	}

	if err = manifests.flush(ctx); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if routed+failed > 0 {
		h.logger.DebugContext(ctx, "shipments routed", "tick", uint64(now),
			"routed", routed, "failed", failed, "computed", resolver.computed)
	}
	return nil
}

// routeResolver finds or computes routes within one stage. Routes added during the stage
// are kept locally because the unit of work does not read its own writes.
type routeResolver struct {
	repo       ports.RouteRepository
	nodes      ports.NodeDirectory
	conditions ports.RouteConditions
	calculator services.RouteCalculator
	policy     Policy

	fresh    map[route.Key]*route.Route
	computed int
}

func newRouteResolver(
	repo ports.RouteRepository,
	nodes ports.NodeDirectory,
	conditions ports.RouteConditions,
	calculator services.RouteCalculator,
	policy Policy,
) *routeResolver {
	return &routeResolver{
		repo:       repo,
		nodes:      nodes,
		conditions: conditions,
		calculator: calculator,
		policy:     policy,
		fresh:      make(map[route.Key]*route.Route),
	}
}

// resolve returns a usable route for the shipment's endpoints, or a failure reason when
// none can exist right now.
func (r *routeResolver) resolve(ctx context.Context, s *shipment.Shipment, now kernel.Tick) (*route.Route, kernel.FailureReason, error) {
	key := route.Key{Source: s.Source(), Destination: s.Destination(), Profile: s.Profile()}

	blocked, err := r.conditions.Blocked(ctx, key.Source, key.Destination)
	if err != nil {
		return nil, kernel.FailureNone, err
	}
	if blocked {
		return nil, kernel.FailureRouteUnavailable, nil
	}

	if cached, ok := r.fresh[key]; ok {
		return cached, kernel.FailureNone, nil
	}
	cached, err := r.repo.FindUsable(ctx, key, now)
	if err == nil {
		r.fresh[key] = cached
		return cached, kernel.FailureNone, nil
	}
	if !isNotFound(err) {
		return nil, kernel.FailureNone, err
	}

	source, destination, reason, err := r.endpoints(ctx, key)
	if err != nil || reason != kernel.FailureNone {
		return nil, reason, err
	}
	est, err := r.calculator.Estimate(source, destination, key.Profile)
	if errors.Is(err, services.ErrRouteUnavailable) {
		return nil, kernel.FailureRouteUnavailable, nil
	}
	if err != nil {
		return nil, kernel.FailureNone, err
	}

	computed, err := route.NewRoute(kernel.NewUUID(), key, est, now, r.policy.RouteCacheTTL)
	if err != nil {
		return nil, kernel.FailureNone, err
	}
	if err = r.repo.Add(ctx, computed); err != nil {
		return nil, kernel.FailureNone, err
	}
	r.fresh[key] = computed
	r.computed++
	return computed, kernel.FailureNone, nil
}

func (r *routeResolver) endpoints(ctx context.Context, key route.Key) (source, destination *node.Node, reason kernel.FailureReason, err error) {
	source, err = r.nodes.Get(ctx, key.Source)
	if isNotFound(err) {
		return nil, nil, kernel.FailureInvalidSource, nil
	}
	if err != nil {
		return nil, nil, kernel.FailureNone, err
	}
	destination, err = r.nodes.Get(ctx, key.Destination)
	if isNotFound(err) {
		return nil, nil, kernel.FailureInvalidDestination, nil
	}
	if err != nil {
		return nil, nil, kernel.FailureNone, err
	}
	return source, destination, kernel.FailureNone, nil
}
