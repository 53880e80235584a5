// Package memory keeps pipeline state in process memory.
//
// Aggregates are stored as snapshots (their State structs) and rebuilt on every read, so
// callers never share memory with the store. A UnitOfWork stages every Add, Update and
// Remove and applies them all under one lock on Commit; reads inside a unit of work see
// committed state only.
//
//	store := memory.NewStore()
//	factory := memory.NewUnitOfWorkFactory(store)
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//	if err := uow.OrderRepository().Add(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
package memory

import (
	"sync"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"
)

// Store is the committed state shared by every unit of work created from it.
type Store struct {
	mu           sync.RWMutex
	orders       map[kernel.UUID]order.State
	reservations map[kernel.UUID]reservation.State
	shipments    map[kernel.UUID]shipment.State
	routes       map[kernel.UUID]route.State
	manifests    map[kernel.UUID]cargo.State
}

func NewStore() *Store {
	return &Store{
		orders:       make(map[kernel.UUID]order.State),
		reservations: make(map[kernel.UUID]reservation.State),
		shipments:    make(map[kernel.UUID]shipment.State),
		routes:       make(map[kernel.UUID]route.State),
		manifests:    make(map[kernel.UUID]cargo.State),
	}
}

// Counts reports how many records of each kind are stored.
type Counts struct {
	Orders       int
	Reservations int
	Shipments    int
	Routes       int
	Manifests    int
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Orders:       len(s.orders),
		Reservations: len(s.reservations),
		Shipments:    len(s.shipments),
		Routes:       len(s.routes),
		Manifests:    len(s.manifests),
	}
}

func pickOrders(s *Store) map[kernel.UUID]order.State             { return s.orders }
func pickReservations(s *Store) map[kernel.UUID]reservation.State { return s.reservations }
func pickShipments(s *Store) map[kernel.UUID]shipment.State       { return s.shipments }
func pickRoutes(s *Store) map[kernel.UUID]route.State             { return s.routes }
func pickManifests(s *Store) map[kernel.UUID]cargo.State          { return s.manifests }
