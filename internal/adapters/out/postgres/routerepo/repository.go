package routerepo

import (
	"context"
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormRouteRepository implements ports.RouteRepository using GORM.
type GormRouteRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormRouteRepository(db *gorm.DB, tracker aggregateTracker) *GormRouteRepository {
	return &GormRouteRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormRouteRepository) Add(ctx context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the status only; key, estimate and ticks never change after creation.
func (r *GormRouteRepository) Update(ctx context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&RouteDTO{}).
		Where("id = ?", aggregate.ID().Bytes()).
		Update("status", int(aggregate.Status()))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundErrorWithCause("route", aggregate.ID().String(), gorm.ErrRecordNotFound)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormRouteRepository) Remove(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&RouteDTO{}, "id = ?", id.Bytes()).Error
}

func (r *GormRouteRepository) Get(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RouteDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("route", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

// FindUsable looks up the newest Valid route for key that has not expired at now.
func (r *GormRouteRepository) FindUsable(ctx context.Context, key route.Key, now kernel.Tick) (*route.Route, error) {
	var dto RouteDTO
	err := r.db.WithContext(ctx).
		Where("source_id = ? AND destination_id = ?", key.Source.Bytes(), key.Destination.Bytes()).
		Where("risk_tolerance = ? AND allow_restricted = ? AND require_secrecy = ? AND required_services = ?",
			key.Profile.RiskTolerance, key.Profile.AllowRestricted, key.Profile.RequireSecrecy,
			uint8(key.Profile.RequiredServices)).
		Where("status = ? AND expiry_tick >= ?", int(route.Valid), uint64(now)).
		Order("computed_tick DESC, id DESC").
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("route", key.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormRouteRepository) List(ctx context.Context, statuses ...route.Status) ([]*route.Route, error) {
	query := r.db.WithContext(ctx).Order("computed_tick, id")
	if len(statuses) > 0 {
		values := make([]int, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, int(s))
		}
		query = query.Where("status IN ?", values)
	}

	var dtos []RouteDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*route.Route, 0, len(dtos))
	for _, dto := range dtos {
		rt, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

var _ ports.RouteRepository = (*GormRouteRepository)(nil)
