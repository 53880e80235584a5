package queries

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/guard"
)

var (
	ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
		"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
	)
)

// GetActiveOrdersQuery retrieves every order still moving through the pipeline.
// Returns orders in Created, Planning, Reserved or Dispatched status.
//
// Example:
//
//	query := NewGetActiveOrdersQuery()
//	handler := NewGetActiveOrdersQueryHandler(uowFactory)
//
//	orders, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get active orders: %w", err)
//	}
//
//	for _, o := range orders {
//	    fmt.Printf("Order %s: %.1f %s (%s)\n", o.ID, o.Requested, o.ResourceID, o.Status)
//	}
type GetActiveOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery creates a parameterless query for non-terminal orders.
func NewGetActiveOrdersQuery() GetActiveOrdersQuery {
	return GetActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// GetActiveOrdersQueryResponse is the read model of one active order.
type GetActiveOrdersQueryResponse struct {
	ID          kernel.UUID
	Kind        string
	Priority    int
	Status      string
	Source      kernel.UUID
	Destination kernel.UUID
	ResourceID  string
	Requested   float64
	Reserved    float64
	Transport   *kernel.UUID
	Shipment    *kernel.UUID
	CreatedTick kernel.Tick
}
