package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/ports"
)

// SettleDeliveriesCommandHandler completes Unloading shipments whose estimated arrival has
// passed. Each carried order is credited with what was actually withdrawn for it, capped at
// its requested amount: construction sites record it as delivered, storehouses take it
// into stock. Settled orders become Delivered and release every reservation they hold.
// Orders that already ended are not credited. Credits reach the destination only after
// the stage has committed.
//
// A shipment fails instead when its destination is gone or can take nothing
// (InvalidDestination), or when an order's inventory hold was never committed
// (InvalidSource).
type SettleDeliveriesCommandHandler struct {
	uowFactory   ports.UnitOfWorkFactory
	nodes        ports.NodeDirectory
	storehouses  ports.Storehouses
	construction ports.ConstructionLedger
	metrics      ports.MetricsRecorder
	logger       *slog.Logger
}

func NewSettleDeliveriesCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	nodes ports.NodeDirectory,
	storehouses ports.Storehouses,
	construction ports.ConstructionLedger,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *SettleDeliveriesCommandHandler {
	return &SettleDeliveriesCommandHandler{
		uowFactory:   uowFactory,
		nodes:        nodes,
		storehouses:  storehouses,
		construction: construction,
		metrics:      metricsOrNop(metrics),
		logger:       logger.With("component", "delivery"),
	}
}

type settlementTarget int

const (
	targetNone settlementTarget = iota
	targetConstruction
	targetStorehouse
)

func (h *SettleDeliveriesCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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

	unloading, err := uow.ShipmentRepository().List(ctx, shipment.Unloading)
	if err != nil {
		return err
	}
	holds, err := buildHoldIndex(ctx, uow.ReservationRepository())
	if err != nil {
		return err
	}
	manifests := newManifestSet(uow.ManifestRepository())
	changes := newWorldChanges(h.storehouses, h.construction, h.logger)

	delivered, failed := 0, 0
	for _, s := range unloading {
		if s.ETA().After(now) {
			continue
		}

		target, reason, checkErr := h.check(ctx, holds, changes, s)
		if checkErr != nil {
			return checkErr
		}
		if reason != kernel.FailureNone {
			h.logger.InfoContext(ctx, "delivery failed",
				"shipment", s.ID().String(), "reason", reason.String())
			if err = failShipment(ctx, uow, s, reason, manifests, h.metrics); err != nil {
				return err
			}
			failed++
			continue
		}

		if err = h.settle(ctx, uow, changes, s, target); err != nil {
			return err
		}
		if err = s.Deliver(now); err != nil {
			return err
		}
		if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
			return err
		}
		if err = manifests.removeShipment(ctx, s); err != nil {
			return err
		}
		h.metrics.ShipmentTransition(s.Status().String())
		delivered++
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

	if delivered+failed > 0 {
		h.logger.DebugContext(ctx, "deliveries settled", "tick", uint64(now),
			"delivered", delivered, "failed", failed)
	}
	return nil
}

// check decides where the cargo goes, or why it cannot be settled. Nothing is credited
// before every condition holds.
func (h *SettleDeliveriesCommandHandler) check(ctx context.Context, holds *holdIndex, changes *worldChanges, s *shipment.Shipment) (settlementTarget, kernel.FailureReason, error) {
	if _, err := h.nodes.Get(ctx, s.Destination()); isNotFound(err) {
		return targetNone, kernel.FailureInvalidDestination, nil
	} else if err != nil {
		return targetNone, kernel.FailureNone, err
	}

	for _, orderID := range s.OrderIDs() {
		hold, ok := holds.inventory[orderID]
		if !ok || hold.Status() != reservation.Committed {
			return targetNone, kernel.FailureInvalidSource, nil
		}
	}

	if _, err := h.construction.Get(ctx, s.Destination()); err == nil {
		return targetConstruction, kernel.FailureNone, nil
	} else if !isNotFound(err) {
		return targetNone, kernel.FailureNone, err
	}

	store, err := h.storehouses.Get(ctx, s.Destination())
	if isNotFound(err) {
		return targetNone, kernel.FailureInvalidDestination, nil
	}
	if err != nil {
		return targetNone, kernel.FailureNone, err
	}
	for _, a := range s.Allocations() {
		if changes.full(store, a.ResourceID) {
			return targetNone, kernel.FailureInvalidDestination, nil
		}
	}
	return targetStorehouse, kernel.FailureNone, nil
}

func (h *SettleDeliveriesCommandHandler) settle(
	ctx context.Context,
	uow ports.UnitOfWork,
	changes *worldChanges,
	s *shipment.Shipment,
	target settlementTarget,
) error {
	var store ports.Storehouse
	if target == targetStorehouse {
		var err error
		if store, err = h.storehouses.Get(ctx, s.Destination()); err != nil {
			return err
		}
	}

	for _, a := range s.Allocations() {
		o, err := uow.OrderRepository().Get(ctx, a.OrderID)
		missing := isNotFound(err)
		if err != nil && !missing {
			return err
		}
		if !missing && o.IsTerminal() {
			continue
		}

		amount, err := s.DeliverableAmount(a.OrderID)
		if err != nil {
			return err
		}
		credited := amount
		switch target {
		case targetConstruction:
			changes.credit(s.Destination(), a.ResourceID, amount)
		case targetStorehouse:
			credited = changes.deposit(store, a.ResourceID, amount)
		}
		if credited < amount {
			h.logger.WarnContext(ctx, "destination accepted less than delivered",
				"shipment", s.ID().String(), "resource", a.ResourceID,
				"delivered", amount, "accepted", credited)
		}

		if missing {
			if err = releaseOrderReservations(ctx, uow.ReservationRepository(), a.OrderID); err != nil {
				return err
			}
			continue
		}
		if err = o.Deliver(); err != nil {
			return err
		}
		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
		if err = releaseOrderReservations(ctx, uow.ReservationRepository(), o.ID()); err != nil {
			return err
		}
		h.metrics.OrderDelivered(credited)
		h.logger.InfoContext(ctx, "order delivered",
			"order", o.ID().String(), "resource", a.ResourceID, "amount", credited)
	}
	return nil
}
