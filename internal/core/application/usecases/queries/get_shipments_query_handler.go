package queries

import (
	"context"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
)

// GetShipmentsQueryHandler reads shipments from committed state.
type GetShipmentsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetShipmentsQueryHandler(uowFactory ports.UnitOfWorkFactory) GetShipmentsQueryHandler {
	return GetShipmentsQueryHandler{uowFactory: uowFactory}
}

// Handle returns matching shipments in creation order.
func (h GetShipmentsQueryHandler) Handle(
	ctx context.Context,
	query GetShipmentsQuery,
) ([]GetShipmentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	all, err := h.uowFactory.Create().ShipmentRepository().List(ctx, query.Statuses()...)
	if err != nil {
		return nil, err
	}

	shipments := make([]GetShipmentsQueryResponse, 0, len(all))
	for _, s := range all {
		resp := GetShipmentsQueryResponse{
			ID:            s.ID(),
			Status:        s.Status().String(),
			Mode:          s.Mode().String(),
			Transport:     s.Transport(),
			Route:         s.Route(),
			Source:        s.Source(),
			Destination:   s.Destination(),
			Orders:        s.OrderIDs(),
			CreatedTick:   s.CreatedTick(),
			ETATick:       s.ETA(),
			DepartureTick: s.DepartureTick(),
			ArrivalTick:   s.ArrivalTick(),
		}
		for _, a := range s.Allocations() {
			resp.Requested += a.Requested
			resp.Carried += a.Actual
		}
		if s.Failure() != kernel.FailureNone {
			resp.Failure = s.Failure().String()
		}
		shipments = append(shipments, resp)
	}
	return shipments, nil
}
