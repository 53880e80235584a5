package reservationrepo

import (
	"context"
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormReservationRepository implements ports.ReservationRepository using GORM.
type GormReservationRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormReservationRepository(db *gorm.DB, tracker aggregateTracker) *GormReservationRepository {
	return &GormReservationRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormReservationRepository) Add(ctx context.Context, aggregate *reservation.Reservation) error {
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

func (r *GormReservationRepository) Update(ctx context.Context, aggregate *reservation.Reservation) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&ReservationDTO{}).Where("id = ?", dto.ID).Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundErrorWithCause("reservation", aggregate.ID().String(), gorm.ErrRecordNotFound)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Remove deletes a hold. Deleting an unknown id affects no row and is not an error.
func (r *GormReservationRepository) Remove(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&ReservationDTO{}, "id = ?", id.Bytes()).Error
}

func (r *GormReservationRepository) Get(ctx context.Context, id kernel.UUID) (*reservation.Reservation, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ReservationDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("reservation", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormReservationRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*reservation.Reservation, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []ReservationDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_tick, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

func (r *GormReservationRepository) List(ctx context.Context, statuses ...reservation.Status) ([]*reservation.Reservation, error) {
	query := r.db.WithContext(ctx).Order("created_tick, id")
	if len(statuses) > 0 {
		values := make([]int, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, int(s))
		}
		query = query.Where("status IN ?", values)
	}

	var dtos []ReservationDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

var _ ports.ReservationRepository = (*GormReservationRepository)(nil)
