package ports

import (
	"context"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"
)

// RouteRepository stores the route cache.
type RouteRepository interface {
	Add(ctx context.Context, r *route.Route) error

	// Update persists a status change. Nothing else about a route ever changes.
	Update(ctx context.Context, r *route.Route) error

	Remove(ctx context.Context, id kernel.UUID) error
	Get(ctx context.Context, id kernel.UUID) (*route.Route, error)

	// FindUsable returns the newest Valid, unexpired route for key. Returns
	// errs.ErrObjectNotFound on a cache miss.
	FindUsable(ctx context.Context, key route.Key, now kernel.Tick) (*route.Route, error)

	// List returns routes in any of the given statuses, or all when none is given.
	List(ctx context.Context, statuses ...route.Status) ([]*route.Route, error)
}
