package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/ports"
)

// DecayCargoCommandHandler applies one tick of perishing to every live manifest. It
// runs whether or not any order moved in the tick.
type DecayCargoCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	catalogs   ports.CatalogProvider
	metrics    ports.MetricsRecorder
	logger     *slog.Logger
}

func NewDecayCargoCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalogs ports.CatalogProvider,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *DecayCargoCommandHandler {
	return &DecayCargoCommandHandler{
		uowFactory: uowFactory,
		catalogs:   catalogs,
		metrics:    metricsOrNop(metrics),
		logger:     logger.With("component", "cargo_decay"),
	}
}

func (h *DecayCargoCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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

	manifests, err := uow.ManifestRepository().List(ctx)
	if err != nil {
		return err
	}

	cat := h.catalogs.Catalog()
	lost := 0.0
	for _, m := range manifests {
		if m.IsEmpty() {
			continue
		}
		l := m.Decay(cat)
		if l <= 0 {
			continue
		}
		lost += l
		if err = uow.ManifestRepository().Update(ctx, m); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if lost > 0 {
		h.metrics.CargoDecayed(lost)
		h.logger.DebugContext(ctx, "cargo decayed", "tick", uint64(cmd.Tick()), "lost", lost)
	}
	return nil
}
