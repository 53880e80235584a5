// Package manifestrepo persists transport cargo manifests. The manifest row carries the
// cached load and value aggregates; items live in "manifest_items".
package manifestrepo

import (
	"logistics/internal/adapters/out/postgres/columns"
	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type ManifestDTO struct {
	TransportID uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Items       []ManifestItemDTO `gorm:"foreignKey:TransportID;constraint:OnDelete:CASCADE"`
	Load        LoadDTO           `gorm:"embedded;embeddedPrefix:load_"`
	Value       ValueDTO          `gorm:"embedded;embeddedPrefix:value_"`
	UpdatedTick uint64            `gorm:"not null"`
}

func (ManifestDTO) TableName() string {
	return "manifests"
}

type LoadDTO struct {
	Mass      float64
	Volume    float64
	Value     float64
	ItemCount int
}

type ValueDTO struct {
	Total              float64
	RaidAttractiveness float64
	EscortPriority     int
}

// ManifestItemDTO is one cargo line. Position keeps the manifest's item order.
type ManifestItemDTO struct {
	TransportID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position      int       `gorm:"primaryKey;autoIncrement:false"`
	ResourceID    string    `gorm:"type:varchar(64);not null"`
	Amount        float64   `gorm:"not null"`
	ShipmentID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ContainerSlot string    `gorm:"type:varchar(64)"`
}

func (ManifestItemDTO) TableName() string {
	return "manifest_items"
}

func fromDomain(m *cargo.Manifest) ManifestDTO {
	s := m.State()
	transportID := columns.ID(s.TransportID)

	items := make([]ManifestItemDTO, 0, len(s.Items))
	for i, item := range s.Items {
		items = append(items, ManifestItemDTO{
			TransportID:   transportID,
			Position:      i,
			ResourceID:    item.ResourceID,
			Amount:        item.Amount,
			ShipmentID:    columns.ID(item.ShipmentID),
			ContainerSlot: item.ContainerSlot,
		})
	}

	return ManifestDTO{
		TransportID: transportID,
		Items:       items,
		Load: LoadDTO{
			Mass:      s.Load.Mass,
			Volume:    s.Load.Volume,
			Value:     s.Load.Value,
			ItemCount: s.Load.ItemCount,
		},
		Value: ValueDTO{
			Total:              s.Value.Value,
			RaidAttractiveness: s.Value.RaidAttractiveness,
			EscortPriority:     int(s.Value.EscortPriority),
		},
		UpdatedTick: uint64(s.UpdatedTick),
	}
}

func toDomain(dto ManifestDTO) (*cargo.Manifest, error) {
	transportID, err := columns.ToID(dto.TransportID)
	if err != nil {
		return nil, err
	}

	items := make([]cargo.Item, 0, len(dto.Items))
	for _, item := range dto.Items {
		shipmentID, idErr := columns.ToID(item.ShipmentID)
		if idErr != nil {
			return nil, idErr
		}
		items = append(items, cargo.Item{
			ResourceID:    item.ResourceID,
			Amount:        item.Amount,
			ShipmentID:    shipmentID,
			ContainerSlot: item.ContainerSlot,
		})
	}

	return cargo.RestoreManifest(cargo.State{
		TransportID: transportID,
		Items:       items,
		Load: cargo.LoadState{
			Mass:      dto.Load.Mass,
			Volume:    dto.Load.Volume,
			Value:     dto.Load.Value,
			ItemCount: dto.Load.ItemCount,
		},
		Value: cargo.ValueState{
			Value:              dto.Value.Total,
			RaidAttractiveness: dto.Value.RaidAttractiveness,
			EscortPriority:     cargo.EscortPriority(dto.Value.EscortPriority),
		},
		UpdatedTick: kernel.Tick(dto.UpdatedTick),
	})
}
