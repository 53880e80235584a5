package manifestrepo

import (
	"context"
	"errors"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormManifestRepository implements ports.ManifestRepository using GORM.
type GormManifestRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormManifestRepository(db *gorm.DB, tracker aggregateTracker) *GormManifestRepository {
	return &GormManifestRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormManifestRepository) Add(ctx context.Context, aggregate *cargo.Manifest) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.TransportID(), aggregate)
	return nil
}

// Update rewrites the aggregates and replaces every item.
func (r *GormManifestRepository) Update(ctx context.Context, aggregate *cargo.Manifest) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ManifestDTO{}).Where("transport_id = ?", dto.TransportID).
			Select("*").Omit("Items").Updates(&dto)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewObjectNotFoundErrorWithCause("manifest", aggregate.TransportID().String(), gorm.ErrRecordNotFound)
		}

		if err := tx.Where("transport_id = ?", dto.TransportID).Delete(&ManifestItemDTO{}).Error; err != nil {
			return err
		}
		if len(dto.Items) == 0 {
			return nil
		}
		return tx.Create(&dto.Items).Error
	})
	if err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.TransportID(), aggregate)
	return nil
}

func (r *GormManifestRepository) Get(ctx context.Context, transportID kernel.UUID) (*cargo.Manifest, error) {
	if err := transportID.Validate(); err != nil {
		return nil, err
	}

	var dto ManifestDTO
	err := r.preload(ctx).First(&dto, "transport_id = ?", transportID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("manifest", transportID.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormManifestRepository) List(ctx context.Context) ([]*cargo.Manifest, error) {
	var dtos []ManifestDTO
	if err := r.preload(ctx).Order("transport_id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*cargo.Manifest, 0, len(dtos))
	for _, dto := range dtos {
		m, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *GormManifestRepository) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

var _ ports.ManifestRepository = (*GormManifestRepository)(nil)
