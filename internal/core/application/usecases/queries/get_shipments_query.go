package queries

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/pkg/guard"
)

var (
	ErrGetShipmentsQueryIsNotConstructed = errors.New(
		"GetShipmentsQuery must be created via NewGetShipmentsQuery constructor",
	)
)

// GetShipmentsQuery retrieves shipments, optionally limited to some statuses.
type GetShipmentsQuery struct {
	statuses []shipment.Status
	guard    guard.ConstructorGuard
}

// NewGetShipmentsQuery creates the query. With no statuses every shipment is returned.
func NewGetShipmentsQuery(statuses ...shipment.Status) (GetShipmentsQuery, error) {
	problems := make([]error, 0, len(statuses))
	for _, s := range statuses {
		problems = append(problems, s.Validate())
	}
	if err := errors.Join(problems...); err != nil {
		return GetShipmentsQuery{}, err
	}
	return GetShipmentsQuery{
		statuses: append([]shipment.Status(nil), statuses...),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetShipmentsQuery) Statuses() []shipment.Status {
	return append([]shipment.Status(nil), q.statuses...)
}

func (q GetShipmentsQuery) Validate() error {
	return q.guard.Validate(ErrGetShipmentsQueryIsNotConstructed)
}

// GetShipmentsQueryResponse is the read model of one shipment. Carried is the amount
// withdrawn at the source, zero before departure.
type GetShipmentsQueryResponse struct {
	ID            kernel.UUID
	Status        string
	Mode          string
	Transport     *kernel.UUID
	Route         *kernel.UUID
	Source        kernel.UUID
	Destination   kernel.UUID
	Orders        []kernel.UUID
	Requested     float64
	Carried       float64
	CreatedTick   kernel.Tick
	ETATick       kernel.Tick
	DepartureTick *kernel.Tick
	ArrivalTick   *kernel.Tick
	Failure       string
}
