// Package columns converts domain identifiers to and from their gorm column types.
package columns

import (
	"logistics/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// ID returns the column value of a required identifier.
func ID(id kernel.UUID) uuid.UUID {
	return id.Bytes()
}

// OptionalID returns nil for a missing identifier.
func OptionalID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

// ToID converts a stored identifier back, rejecting the nil UUID.
func ToID(raw uuid.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(raw[:])
}

// ToOptionalID converts a nullable stored identifier.
func ToOptionalID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := ToID(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// OptionalTick returns the column value of an optional tick.
func OptionalTick(t *kernel.Tick) *uint64 {
	if t == nil {
		return nil
	}
	v := uint64(*t)
	return &v
}

// ToOptionalTick converts a nullable stored tick.
func ToOptionalTick(v *uint64) *kernel.Tick {
	if v == nil {
		return nil
	}
	t := kernel.Tick(*v)
	return &t
}
