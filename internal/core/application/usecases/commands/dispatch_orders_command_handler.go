package commands

import (
	"context"
	"errors"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
)

// DispatchOrdersCommandHandler assigns a transport to every Reserved order that has none,
// reserving capacity on it and opening a shipment.
//
// A transport is offered to at most one order per tick. Orders are served in creation
// order, so earlier orders win contention for the tightest carrier.
type DispatchOrdersCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	catalogs   ports.CatalogProvider
	transports ports.TransportDirectory
	selector   services.TransportSelector
	policy     Policy
	metrics    ports.MetricsRecorder
	logger     *slog.Logger
}

func NewDispatchOrdersCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalogs ports.CatalogProvider,
	transports ports.TransportDirectory,
	policy Policy,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *DispatchOrdersCommandHandler {
	return &DispatchOrdersCommandHandler{
		uowFactory: uowFactory,
		catalogs:   catalogs,
		transports: transports,
		selector:   services.NewTransportSelector(),
		policy:     policy,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "dispatcher"),
	}
}

func (h *DispatchOrdersCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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

	reserved, err := uow.OrderRepository().List(ctx, order.Reserved)
	if err != nil {
		return err
	}
	pending := reserved[:0]
	for _, o := range reserved {
		if o.Transport() == nil {
			pending = append(pending, o)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	available, err := h.transports.Available(ctx)
	if err != nil {
		return err
	}
	used, err := h.capacityInUse(ctx, uow.ReservationRepository())
	if err != nil {
		return err
	}

	cat := h.catalogs.Catalog()
	assigned := make(map[kernel.UUID]bool)
	dispatched, failed := 0, 0
	for _, o := range pending {
		spec, ok := cat.Item(o.ResourceID())
		if !ok {
			if err = h.fail(ctx, uow, o, kernel.FailureInvalidContainer); err != nil {
				return err
			}
			failed++
			continue
		}

		candidates := make([]services.Candidate, 0, len(available))
		for _, t := range available {
			if assigned[t.ID()] {
				continue
			}
			u := used[t.ID()]
			candidates = append(candidates, services.Candidate{
				Transport:  t,
				FreeMass:   t.MaxMass() - u.mass,
				FreeVolume: t.MaxVolume() - u.volume,
			})
		}

		req := services.RequirementFor(spec, o.Requested())
		sel, selErr := h.selector.Select(req, candidates)
		switch {
		case errors.Is(selErr, services.ErrNoCarrier):
			if err = h.fail(ctx, uow, o, kernel.FailureNoCarrier); err != nil {
				return err
			}
			failed++
			continue
		case errors.Is(selErr, services.ErrNoCapacity):
			if err = h.fail(ctx, uow, o, kernel.FailureNoCapacity); err != nil {
				return err
			}
			failed++
			continue
		case selErr != nil:
			return selErr
		}

		if err = h.dispatch(ctx, uow, o, sel, req, used[sel.Transport.ID()], now); err != nil {
			return err
		}
		assigned[sel.Transport.ID()] = true
		u := used[sel.Transport.ID()]
		used[sel.Transport.ID()] = capacityUse{mass: u.mass + req.Mass, volume: u.volume + req.Volume}
		dispatched++
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.DebugContext(ctx, "orders dispatched", "tick", uint64(now),
		"dispatched", dispatched, "failed", failed, "transports", len(available))
	return nil
}

func (h *DispatchOrdersCommandHandler) dispatch(
	ctx context.Context,
	uow ports.UnitOfWork,
	o *order.Order,
	sel services.Selection,
	req services.Requirement,
	inUse capacityUse,
	now kernel.Tick,
) error {
	t := sel.Transport
	hold, err := reservation.NewCapacity(
		kernel.NewUUID(), o.ID(), t.ID(),
		req.Mass, req.Volume,
		t.MaxMass()-inUse.mass, t.MaxVolume()-inUse.volume,
		now, h.policy.CapacityTTL,
	)
	if err != nil {
		return err
	}

	mode := shipment.Physical
	if t.IsVirtual() {
		mode = shipment.Abstract
	}
	transportID := t.ID()
	s, err := shipment.NewShipment(kernel.NewUUID(), shipment.Params{
		TransportID: &transportID,
		Source:      o.Source(),
		Destination: o.Destination(),
		Mode:        mode,
		Profile:     h.policy.RouteProfile,
		Allocations: []shipment.Allocation{{
			OrderID:       o.ID(),
			ResourceID:    o.ResourceID(),
			Requested:     o.Requested(),
			ContainerSlot: sel.Slot.ID,
		}},
		CreatedTick: now,
	})
	if err != nil {
		return err
	}

	if err = o.Dispatch(transportID, s.ID()); err != nil {
		return err
	}
	if err = uow.ReservationRepository().Add(ctx, hold); err != nil {
		return err
	}
	if err = uow.ShipmentRepository().Add(ctx, s); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	h.metrics.ShipmentTransition(s.Status().String())

	h.logger.DebugContext(ctx, "order dispatched",
		"order", o.ID().String(),
		"shipment", s.ID().String(),
		"transport", t.Name(),
		"mode", mode.String(),
		"score", sel.Score,
	)
	return nil
}

func (h *DispatchOrdersCommandHandler) fail(ctx context.Context, uow ports.UnitOfWork, o *order.Order, reason kernel.FailureReason) error {
	h.logger.InfoContext(ctx, "order failed in dispatch", "order", o.ID().String(), "reason", reason.String())
	return failOrder(ctx, uow, o, reason, h.metrics)
}

type capacityUse struct {
	mass   float64
	volume float64
}

// capacityInUse sums the Active capacity holds per transport.
func (h *DispatchOrdersCommandHandler) capacityInUse(ctx context.Context, repo ports.ReservationRepository) (map[kernel.UUID]capacityUse, error) {
	active, err := repo.List(ctx, reservation.Active)
	if err != nil {
		return nil, err
	}
	used := make(map[kernel.UUID]capacityUse)
	for _, r := range active {
		if r.Kind() != reservation.Capacity {
			continue
		}
		u := used[r.HolderID()]
		used[r.HolderID()] = capacityUse{mass: u.mass + r.Mass(), volume: u.volume + r.Volume()}
	}
	return used, nil
}
