// Package postgres provides the GORM-based Unit of Work over the pipeline's aggregates.
// The Unit of Work maintains a list of aggregates affected by one pipeline stage and
// writes them out in a single database transaction.
//
// Key Features:
//   - One transaction per stage across the order, reservation, shipment, route and
//     manifest repositories
//   - Aggregate tracking for post-commit processing
//   - Works with any gorm dialector; the database package opens postgres or sqlite
//
// Usage Patterns:
//
// Stage Transaction:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	if err := uow.ReservationRepository().Add(ctx, hold); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Without Begin every repository call runs directly against the connection and is
// visible at once. Fixtures and one-off tools rely on that.
//
// Concurrency Considerations:
//   - Each UnitOfWork instance owns at most one transaction
//   - Multiple goroutines should use separate UnitOfWork instances
//   - Reads inside a transaction observe its own writes; pipeline stages do not depend
//     on that and keep their own per-stage indexes
package postgres

import (
	"context"

	"logistics/internal/adapters/out/postgres/manifestrepo"
	"logistics/internal/adapters/out/postgres/orderrepo"
	"logistics/internal/adapters/out/postgres/reservationrepo"
	"logistics/internal/adapters/out/postgres/routerepo"
	"logistics/internal/adapters/out/postgres/shipmentrepo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate represents an aggregate modified during the unit of work.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one GORM connection pool.
// Every pipeline stage gets a fresh unit of work.
//
// Example:
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork with its own transaction state and tracking list.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction and tracks the aggregates written
// through its repositories.
//
// Example usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return fmt.Errorf("failed to begin transaction: %w", err)
//	}
//
//	if err := uow.ShipmentRepository().Update(ctx, s); err != nil {
//	    _ = uow.Rollback(ctx)
//	    return fmt.Errorf("failed to update shipment: %w", err)
//	}
//
//	if err := uow.Commit(ctx); err != nil {
//	    return fmt.Errorf("failed to commit transaction: %w", err)
//	}
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin opens the transaction. Calling it again while the transaction is open is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit makes every staged change permanent and closes the transaction.
// It returns gorm.ErrInvalidTransaction when no transaction is open.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the open transaction. After Commit it returns
// gorm.ErrInvalidTransaction and changes nothing, so it is safe in a deferred call.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// OrderRepository returns the order repository bound to the current transaction, or
// to the connection when none is open.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) ReservationRepository() ports.ReservationRepository {
	return reservationrepo.NewGormReservationRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) ShipmentRepository() ports.ShipmentRepository {
	return shipmentrepo.NewGormShipmentRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) RouteRepository() ports.RouteRepository {
	return routerepo.NewGormRouteRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) ManifestRepository() ports.ManifestRepository {
	return manifestrepo.NewGormManifestRepository(uow.conn(), uow)
}

// TrackAggregate registers an aggregate written by one of the repositories.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// TrackedIDs returns the ids of every aggregate written since the last rollback, in
// write order. An aggregate written twice appears twice.
func (uow *GormUnitOfWork) TrackedIDs() []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(uow.trackedAggregates))
	for _, t := range uow.trackedAggregates {
		ids = append(ids, t.ID)
	}
	return ids
}

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&reservationrepo.ReservationDTO{},
		&shipmentrepo.ShipmentDTO{},
		&shipmentrepo.AllocationDTO{},
		&routerepo.RouteDTO{},
		&manifestrepo.ManifestDTO{},
		&manifestrepo.ManifestItemDTO{},
	)
}

var _ ports.UnitOfWorkFactory = (*GormUnitOfWorkFactory)(nil)
