package queries

import (
	"context"

	"logistics/internal/core/ports"
)

// GetActiveOrdersQueryHandler reads active orders through a unit of work that is never
// begun, so it sees committed state only and holds no transaction.
//
// Example:
//
//	handler := NewGetActiveOrdersQueryHandler(uowFactory)
//	query := NewGetActiveOrdersQuery()
//
//	active, err := handler.Handle(ctx, query)
//	if err != nil {
//	    log.Printf("Failed to get active orders: %v", err)
//	    return err
//	}
type GetActiveOrdersQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

// NewGetActiveOrdersQueryHandler creates a handler over any unit of work implementation.
func NewGetActiveOrdersQueryHandler(uowFactory ports.UnitOfWorkFactory) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{uowFactory: uowFactory}
}

// Handle returns active orders in creation order.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]GetActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	active, err := h.uowFactory.Create().OrderRepository().ListActive(ctx)
	if err != nil {
		return nil, err
	}

	orders := make([]GetActiveOrdersQueryResponse, 0, len(active))
	for _, o := range active {
		orders = append(orders, GetActiveOrdersQueryResponse{
			ID:          o.ID(),
			Kind:        o.Kind().String(),
			Priority:    int(o.Priority()),
			Status:      o.Status().String(),
			Source:      o.Source(),
			Destination: o.Destination(),
			ResourceID:  o.ResourceID(),
			Requested:   o.Requested(),
			Reserved:    o.Reserved(),
			Transport:   o.Transport(),
			Shipment:    o.Shipment(),
			CreatedTick: o.CreatedTick(),
		})
	}
	return orders, nil
}
