package shipmentrepo

import (
	"context"
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormShipmentRepository implements ports.ShipmentRepository using GORM.
type GormShipmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormShipmentRepository(db *gorm.DB, tracker aggregateTracker) *GormShipmentRepository {
	return &GormShipmentRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts the shipment together with its allocations.
func (r *GormShipmentRepository) Add(ctx context.Context, aggregate *shipment.Shipment) error {
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

// Update rewrites the shipment row and replaces its allocations.
func (r *GormShipmentRepository) Update(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ShipmentDTO{}).Where("id = ?", dto.ID).
			Select("*").Omit("Allocations").Updates(&dto)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewObjectNotFoundErrorWithCause("shipment", aggregate.ID().String(), gorm.ErrRecordNotFound)
		}

		if err := tx.Where("shipment_id = ?", dto.ID).Delete(&AllocationDTO{}).Error; err != nil {
			return err
		}
		if len(dto.Allocations) == 0 {
			return nil
		}
		return tx.Create(&dto.Allocations).Error
	})
	if err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ShipmentDTO
	err := r.preload(ctx).First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipment", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormShipmentRepository) List(ctx context.Context, statuses ...shipment.Status) ([]*shipment.Shipment, error) {
	query := r.preload(ctx).Order("created_tick, id")
	if len(statuses) > 0 {
		values := make([]int, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, int(s))
		}
		query = query.Where("status IN ?", values)
	}

	var dtos []ShipmentDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*shipment.Shipment, 0, len(dtos))
	for _, dto := range dtos {
		s, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *GormShipmentRepository) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

var _ ports.ShipmentRepository = (*GormShipmentRepository)(nil)
