package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/ports"
)

// ManageReservationsCommandHandler reclaims stale holds and reserves inventory for
// planned orders.
//
// Every tick, independently of orders:
//   - Active reservations past their expiry tick become Expired
//   - Released and Expired reservations are destroyed
//   - holds whose order is terminal or gone are released
//
// Then every Planning order gets one Inventory reservation at its source for the
// requested amount and moves to Reserved.
type ManageReservationsCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	policy     Policy
	metrics    ports.MetricsRecorder
	logger     *slog.Logger
}

func NewManageReservationsCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *ManageReservationsCommandHandler {
	return &ManageReservationsCommandHandler{
		uowFactory: uowFactory,
		policy:     policy,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "reservation_manager"),
	}
}

func (h *ManageReservationsCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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

	reservations := uow.ReservationRepository()
	all, err := reservations.List(ctx)
	if err != nil {
		return err
	}
	live, err := uow.OrderRepository().ListActive(ctx)
	if err != nil {
		return err
	}
	liveOrders := make(map[kernel.UUID]bool, len(live))
	for _, o := range live {
		liveOrders[o.ID()] = true
	}

	expired, destroyed, orphaned := 0, 0, 0
	activeInventory := make(map[kernel.UUID]bool)
	for _, r := range all {
		switch {
		case r.IsDisposable():
			if err = reservations.Remove(ctx, r.ID()); err != nil {
				return err
			}
			destroyed++
		case !liveOrders[r.OrderID()]:
			r.Release()
			if err = reservations.Update(ctx, r); err != nil {
				return err
			}
			orphaned++
		case r.ExpireAt(now):
			if err = reservations.Update(ctx, r); err != nil {
				return err
			}
			expired++
		case r.Kind() == reservation.Inventory && r.IsActive():
			activeInventory[r.OrderID()] = true
		}
	}

	planning, err := uow.OrderRepository().List(ctx, order.Planning)
	if err != nil {
		return err
	}
	for _, o := range planning {
		if !activeInventory[o.ID()] {
			r, newErr := reservation.NewInventory(
				kernel.NewUUID(), o.ID(), o.Source(), o.ResourceID(), o.Requested(), now, h.policy.InventoryTTL,
			)
			if newErr != nil {
				return newErr
			}
			if err = reservations.Add(ctx, r); err != nil {
				return err
			}
			activeInventory[o.ID()] = true
		}
		if err = o.Reserve(o.Requested()); err != nil {
			return err
		}
		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if expired > 0 {
		h.metrics.ReservationsExpired(expired)
	}
	if expired+destroyed+orphaned+len(planning) > 0 {
		h.logger.DebugContext(ctx, "reservations managed", "tick", uint64(now),
			"expired", expired, "destroyed", destroyed, "orphaned", orphaned, "reserved", len(planning))
	}
	return nil
}
