package kernel

import (
	"bytes"
	"fmt"

	"logistics/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed indicates a zero-value UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes")

// UUID identifies orders, shipments, reservations, routes, nodes and transports.
//
// New identifiers are version 7 UUIDs: the leading 48 bits hold a millisecond timestamp
// and google/uuid keeps them monotonic inside the process, so Compare orders ids by
// creation. The zero value is invalid.
//
//	id := kernel.NewUUID()
//	later := kernel.NewUUID()
//	id.Compare(later) // -1
type UUID struct {
	id uuid.UUID
}

// NewUUID generates a new time-ordered UUID.
func NewUUID() UUID {
	return UUID{id: uuid.Must(uuid.NewV7())}
}

// UUIDFromString parses a UUID from its textual form (hyphenated, braced, urn or raw hex).
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	return UUID{id: id}, nil
}

// MustUUIDFromString is UUIDFromString for fixtures; it panics on bad input.
func MustUUIDFromString(s string) UUID {
	id, err := UUIDFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}

// UUIDFromBytes creates a UUID from its 16-byte form. A nil UUID is rejected.
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}

	return newID, nil
}

// String returns the hyphenated form.
func (u UUID) String() string {
	return u.id.String()
}

// Bytes returns the underlying uuid.UUID for persistence adapters.
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

// IsEqual reports whether both ids hold the same value.
func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

// Compare returns -1, 0 or +1 comparing the byte representation, which for ids created by
// NewUUID is their creation order.
func (u UUID) Compare(other UUID) int {
	return bytes.Compare(u.id[:], other.id[:])
}

// Validate returns ErrUUIDIsNotConstructed for the zero value.
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}
