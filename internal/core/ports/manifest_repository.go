package ports

import (
	"context"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
)

// ManifestRepository stores one cargo manifest per transport.
type ManifestRepository interface {
	Add(ctx context.Context, m *cargo.Manifest) error
	Update(ctx context.Context, m *cargo.Manifest) error

	// Get returns the manifest of a transport, errs.ErrObjectNotFound if it has none.
	Get(ctx context.Context, transportID kernel.UUID) (*cargo.Manifest, error)

	List(ctx context.Context) ([]*cargo.Manifest, error)
}
