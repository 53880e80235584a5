package commands

import (
	"context"
	"log/slog"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/ports"
)

// AggregateCargoCommandHandler recomputes the load and value summaries of every manifest
// so escorts and raiders see the cargo as it is at the end of the tick.
type AggregateCargoCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	catalogs   ports.CatalogProvider
	logger     *slog.Logger
}

func NewAggregateCargoCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	catalogs ports.CatalogProvider,
	logger *slog.Logger,
) *AggregateCargoCommandHandler {
	return &AggregateCargoCommandHandler{
		uowFactory: uowFactory,
		catalogs:   catalogs,
		logger:     logger.With("component", "cargo_aggregation"),
	}
}

func (h *AggregateCargoCommandHandler) Handle(ctx context.Context, cmd TickCommand) error {
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
	escorted := 0
	for _, m := range manifests {
		m.Aggregate(cat, cmd.Tick())
		if m.Value().EscortPriority >= cargo.EscortMedium {
			escorted++
		}
		if err = uow.ManifestRepository().Update(ctx, m); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if len(manifests) > 0 {
		h.logger.DebugContext(ctx, "cargo aggregated", "tick", uint64(cmd.Tick()),
			"manifests", len(manifests), "escort_needed", escorted)
	}
	return nil
}
