package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/model/transport"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
)

// ProgressShipmentsCommandHandler advances shipments through loading, transit and arrival.
//
// Shipments created in the current tick are left for the next one. Each remaining
// shipment is first checked for conditions that make it undeliverable; any of them fails
// the shipment and its orders in this tick:
//   - its physical transport is gone (TransportLost)
//   - its source is gone, or is no storehouse, before departure (InvalidSource)
//   - its destination is gone (InvalidDestination)
//   - a container slot its cargo needs is gone (InvalidContainer)
//   - an inventory hold ran out before loading finished (Timeout)
//   - it has no usable route before departure (RouteUnavailable)
//
// Otherwise it takes at most one step:
//   - Created -> Loading once a Load slot is free at the source
//   - Loading -> InTransit once the source has stock; the withdrawal commits the
//     inventory hold and the cargo goes into the transport manifest. The source stock
//     only drops once the stage has committed.
//   - InTransit/Rerouting -> Unloading once arrival is detected and an Unload slot is
//     free at the destination
type ProgressShipmentsCommandHandler struct {
	uowFactory  ports.UnitOfWorkFactory
	nodes       ports.NodeDirectory
	transports  ports.TransportDirectory
	storehouses ports.Storehouses
	detector    *services.ArrivalDetector
	policy      Policy
	metrics     ports.MetricsRecorder
	logger      *slog.Logger
}

func NewProgressShipmentsCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	nodes ports.NodeDirectory,
	transports ports.TransportDirectory,
	storehouses ports.Storehouses,
	detector *services.ArrivalDetector,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *ProgressShipmentsCommandHandler {
	return &ProgressShipmentsCommandHandler{
		uowFactory:  uowFactory,
		nodes:       nodes,
		transports:  transports,
		storehouses: storehouses,
		detector:    detector,
		policy:      policy,
		metrics:     metricsOrNop(metrics),
		logger:      logger.With("component", "shipment_progression"),
	}
}

// progressStep carries what one shipment needs for its step in this tick.
type progressStep struct {
	shipment    *shipment.Shipment
	transport   *transport.Transport
	source      *node.Node
	destination *node.Node
	route       *route.Route
	stock       ports.Storehouse
}

func (h *ProgressShipmentsCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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

	shipments, err := uow.ShipmentRepository().List(ctx,
		shipment.Created, shipment.Loading, shipment.InTransit, shipment.Rerouting)
	if err != nil {
		return err
	}
	holds, err := buildHoldIndex(ctx, uow.ReservationRepository())
	if err != nil {
		return err
	}
	manifests := newManifestSet(uow.ManifestRepository())
	changes := newWorldChanges(h.storehouses, nil, h.logger)

	advanced, failed := 0, 0
	for _, s := range shipments {
		if !now.After(s.CreatedTick()) {
			continue
		}

		step, reason, checkErr := h.check(ctx, uow, holds, s)
		if checkErr != nil {
			return checkErr
		}
		if reason != kernel.FailureNone {
			h.logger.InfoContext(ctx, "shipment failed",
				"shipment", s.ID().String(), "status", s.Status().String(), "reason", reason.String())
			if err = failShipment(ctx, uow, s, reason, manifests, h.metrics); err != nil {
				return err
			}
			failed++
			continue
		}

		var moved bool
		switch s.Status() {
		case shipment.Created:
			moved, err = h.startLoading(ctx, uow, holds, step, now)
		case shipment.Loading:
			moved, err = h.depart(ctx, uow, holds, manifests, changes, step, now)
		case shipment.InTransit, shipment.Rerouting:
			moved, err = h.arrive(ctx, uow, holds, step, now)
		}
		if err != nil {
			return err
		}
		if moved {
			if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
				return err
			}
			h.metrics.ShipmentTransition(s.Status().String())
			advanced++
		}
	}

	if err = manifests.flush(ctx); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}
	if err = changes.apply(ctx); err != nil {
		return err
	}

	if advanced+failed > 0 {
		h.logger.DebugContext(ctx, "shipments progressed", "tick", uint64(now),
			"advanced", advanced, "failed", failed)
	}
	return nil
}

// check resolves the shipment's collaborators and returns the first fatal condition.
func (h *ProgressShipmentsCommandHandler) check(
	ctx context.Context,
	uow ports.UnitOfWork,
	holds *holdIndex,
	s *shipment.Shipment,
) (progressStep, kernel.FailureReason, error) {
	step := progressStep{shipment: s}

	if s.Transport() != nil {
		t, err := h.transports.Get(ctx, *s.Transport())
		switch {
		case isNotFound(err):
			if s.Mode() == shipment.Physical {
				return step, kernel.FailureTransportLost, nil
			}
		case err != nil:
			return step, kernel.FailureNone, err
		default:
			step.transport = t
		}
	} else if s.Mode() == shipment.Physical {
		return step, kernel.FailureTransportLost, nil
	}

	departed := s.HasDeparted()
	if !departed {
		source, err := h.nodes.Get(ctx, s.Source())
		if isNotFound(err) {
			return step, kernel.FailureInvalidSource, nil
		}
		if err != nil {
			return step, kernel.FailureNone, err
		}
		step.source = source
	}
	if s.Status() == shipment.Loading {
		stock, err := h.storehouses.Get(ctx, s.Source())
		if isNotFound(err) {
			return step, kernel.FailureInvalidSource, nil
		}
		if err != nil {
			return step, kernel.FailureNone, err
		}
		step.stock = stock
	}

	destination, err := h.nodes.Get(ctx, s.Destination())
	if isNotFound(err) {
		return step, kernel.FailureInvalidDestination, nil
	}
	if err != nil {
		return step, kernel.FailureNone, err
	}
	step.destination = destination

	if step.transport != nil {
		for _, a := range s.Allocations() {
			if !step.transport.HasSlot(a.ContainerSlot) {
				return step, kernel.FailureInvalidContainer, nil
			}
		}
	}

	if departed {
		return step, kernel.FailureNone, nil
	}

	for _, orderID := range s.OrderIDs() {
		hold, ok := holds.inventory[orderID]
		if !ok || !hold.IsActive() {
			return step, kernel.FailureTimeout, nil
		}
	}

	if s.Route() == nil {
		return step, kernel.FailureRouteUnavailable, nil
	}
	r, err := uow.RouteRepository().Get(ctx, *s.Route())
	if isNotFound(err) {
		return step, kernel.FailureRouteUnavailable, nil
	}
	if err != nil {
		return step, kernel.FailureNone, err
	}
	if r.Status() == route.Invalid {
		return step, kernel.FailureRouteUnavailable, nil
	}
	step.route = r
	return step, kernel.FailureNone, nil
}

func (h *ProgressShipmentsCommandHandler) startLoading(
	ctx context.Context,
	uow ports.UnitOfWork,
	holds *holdIndex,
	step progressStep,
	now kernel.Tick,
) (bool, error) {
	if !holds.hasFreeSlot(step.source, node.ServiceLoad) {
		return false, nil
	}
	s := step.shipment
	if err := s.StartLoading(); err != nil {
		return false, err
	}
	if err := h.holdService(ctx, uow, holds, s, step.source, node.ServiceLoad, now); err != nil {
		return false, err
	}
	return true, nil
}

func (h *ProgressShipmentsCommandHandler) depart(
	ctx context.Context,
	uow ports.UnitOfWork,
	holds *holdIndex,
	manifests *manifestSet,
	changes *worldChanges,
	step progressStep,
	now kernel.Tick,
) (bool, error) {
	s := step.shipment
	for _, a := range s.Allocations() {
		if changes.stock(step.stock, a.ResourceID) <= 0 {
			return false, nil
		}
	}

	var err error
	withdrawn := 0
	reservations := uow.ReservationRepository()
	for _, a := range s.Allocations() {
		hold := holds.inventory[a.OrderID]
		actual := changes.withdraw(step.stock, a.ResourceID, min(hold.Amount(), a.Requested))
		if actual <= 0 {
			continue
		}
		if err = hold.Commit(actual); err != nil {
			return false, err
		}
		if err = reservations.Update(ctx, hold); err != nil {
			return false, err
		}
		if err = s.RecordWithdrawal(a.OrderID, actual); err != nil {
			return false, err
		}
		withdrawn++
		if actual < a.Requested {
			h.logger.InfoContext(ctx, "partial withdrawal",
				"shipment", s.ID().String(), "resource", a.ResourceID,
				"requested", a.Requested, "withdrawn", actual)
		}
	}

	if withdrawn == 0 {
		return false, nil
	}

	for _, orderID := range s.OrderIDs() {
		if err = holds.releaseService(ctx, reservations, orderID, node.ServiceLoad); err != nil {
			return false, err
		}
	}
	if err = s.Depart(now, step.route.TransitTicks()); err != nil {
		return false, err
	}
	if err = manifests.load(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}

func (h *ProgressShipmentsCommandHandler) arrive(
	ctx context.Context,
	uow ports.UnitOfWork,
	holds *holdIndex,
	step progressStep,
	now kernel.Tick,
) (bool, error) {
	s := step.shipment
	arrival, err := h.detector.Detect(s, step.transport, step.destination, now)
	if err != nil {
		return false, err
	}
	if arrival.Warn {
		h.logger.WarnContext(ctx, "transport exposes no arrival signal, falling back to ETA",
			"shipment", s.ID().String(), "transport", step.transport.Name())
	}
	if !arrival.Arrived() || !holds.hasFreeSlot(step.destination, node.ServiceUnload) {
		return false, nil
	}

	if err = s.BeginUnloading(); err != nil {
		return false, err
	}
	if err = h.holdService(ctx, uow, holds, s, step.destination, node.ServiceUnload, now); err != nil {
		return false, err
	}
	h.logger.DebugContext(ctx, "shipment arrived",
		"shipment", s.ID().String(), "signal", arrival.Signal.String())
	return true, nil
}

// holdService takes one service slot on behalf of the shipment's first order.
func (h *ProgressShipmentsCommandHandler) holdService(
	ctx context.Context,
	uow ports.UnitOfWork,
	holds *holdIndex,
	s *shipment.Shipment,
	n *node.Node,
	service node.ServiceType,
	now kernel.Tick,
) error {
	orderIDs := s.OrderIDs()
	if len(orderIDs) == 0 {
		return nil
	}
	r, err := reservation.NewService(kernel.NewUUID(), orderIDs[0], n.ID(), service, now, h.policy.ServiceTTL)
	if err != nil {
		return err
	}
	if err = uow.ReservationRepository().Add(ctx, r); err != nil {
		return err
	}
	holds.takeSlot(r)
	return nil
}
