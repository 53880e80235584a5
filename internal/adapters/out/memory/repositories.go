package memory

import (
	"context"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/pkg/errs"
)

var (
	orders       = table[order.State, *order.Order]{name: "order", pick: pickOrders, restore: order.RestoreOrder}
	reservations = table[reservation.State, *reservation.Reservation]{name: "reservation", pick: pickReservations, restore: reservation.RestoreReservation}
	shipments    = table[shipment.State, *shipment.Shipment]{name: "shipment", pick: pickShipments, restore: shipment.RestoreShipment}
	routes       = table[route.State, *route.Route]{name: "route", pick: pickRoutes, restore: route.RestoreRoute}
	manifests    = table[cargo.State, *cargo.Manifest]{name: "manifest", pick: pickManifests, restore: cargo.RestoreManifest}
)

// OrderRepository implements ports.OrderRepository.
type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return orders.add(r.uow, o.ID(), o.State())
}

func (r *OrderRepository) Update(_ context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return orders.update(r.uow, o.ID(), o.State())
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	return orders.get(r.uow, id)
}

func (r *OrderRepository) List(_ context.Context, statuses ...order.Status) ([]*order.Order, error) {
	keep := statusFilter(statuses)
	return orders.list(r.uow, func(s order.State) bool { return keep(s.Status) }, orderCreation)
}

func (r *OrderRepository) ListActive(_ context.Context) ([]*order.Order, error) {
	return orders.list(r.uow, func(s order.State) bool { return !s.Status.IsTerminal() }, orderCreation)
}

func orderCreation(a, b order.State) int {
	return byCreation(a.CreatedTick, b.CreatedTick, a.ID, b.ID)
}

// ReservationRepository implements ports.ReservationRepository.
type ReservationRepository struct {
	uow *UnitOfWork
}

func (r *ReservationRepository) Add(_ context.Context, res *reservation.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}
	return reservations.add(r.uow, res.ID(), res.State())
}

func (r *ReservationRepository) Update(_ context.Context, res *reservation.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}
	return reservations.update(r.uow, res.ID(), res.State())
}

func (r *ReservationRepository) Remove(_ context.Context, id kernel.UUID) error {
	reservations.remove(r.uow, id)
	return nil
}

func (r *ReservationRepository) Get(_ context.Context, id kernel.UUID) (*reservation.Reservation, error) {
	return reservations.get(r.uow, id)
}

func (r *ReservationRepository) ListByOrder(_ context.Context, orderID kernel.UUID) ([]*reservation.Reservation, error) {
	return reservations.list(r.uow, func(s reservation.State) bool { return s.OrderID == orderID }, reservationCreation)
}

func (r *ReservationRepository) List(_ context.Context, statuses ...reservation.Status) ([]*reservation.Reservation, error) {
	keep := statusFilter(statuses)
	return reservations.list(r.uow, func(s reservation.State) bool { return keep(s.Status) }, reservationCreation)
}

func reservationCreation(a, b reservation.State) int {
	return byCreation(a.CreatedTick, b.CreatedTick, a.ID, b.ID)
}

// ShipmentRepository implements ports.ShipmentRepository.
type ShipmentRepository struct {
	uow *UnitOfWork
}

func (r *ShipmentRepository) Add(_ context.Context, s *shipment.Shipment) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return shipments.add(r.uow, s.ID(), s.State())
}

func (r *ShipmentRepository) Update(_ context.Context, s *shipment.Shipment) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return shipments.update(r.uow, s.ID(), s.State())
}

func (r *ShipmentRepository) Get(_ context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	return shipments.get(r.uow, id)
}

func (r *ShipmentRepository) List(_ context.Context, statuses ...shipment.Status) ([]*shipment.Shipment, error) {
	keep := statusFilter(statuses)
	return shipments.list(r.uow, func(s shipment.State) bool { return keep(s.Status) }, func(a, b shipment.State) int {
		return byCreation(a.CreatedTick, b.CreatedTick, a.ID, b.ID)
	})
}

// RouteRepository implements ports.RouteRepository.
type RouteRepository struct {
	uow *UnitOfWork
}

func (r *RouteRepository) Add(_ context.Context, rt *route.Route) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	return routes.add(r.uow, rt.ID(), rt.State())
}

func (r *RouteRepository) Update(_ context.Context, rt *route.Route) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	return routes.update(r.uow, rt.ID(), rt.State())
}

func (r *RouteRepository) Remove(_ context.Context, id kernel.UUID) error {
	routes.remove(r.uow, id)
	return nil
}

func (r *RouteRepository) Get(_ context.Context, id kernel.UUID) (*route.Route, error) {
	return routes.get(r.uow, id)
}

// FindUsable returns the most recently computed usable route for key.
func (r *RouteRepository) FindUsable(_ context.Context, key route.Key, now kernel.Tick) (*route.Route, error) {
	usable, err := routes.list(r.uow, func(s route.State) bool {
		return s.Key == key && s.Status == route.Valid && !now.After(s.ExpiryTick)
	}, routeNewestFirst)
	if err != nil {
		return nil, err
	}
	if len(usable) == 0 {
		return nil, errs.NewObjectNotFoundError("route", key.String())
	}
	return usable[0], nil
}

func (r *RouteRepository) List(_ context.Context, statuses ...route.Status) ([]*route.Route, error) {
	keep := statusFilter(statuses)
	return routes.list(r.uow, func(s route.State) bool { return keep(s.Status) }, func(a, b route.State) int {
		return byCreation(a.ComputedTick, b.ComputedTick, a.ID, b.ID)
	})
}

func routeNewestFirst(a, b route.State) int {
	return byCreation(b.ComputedTick, a.ComputedTick, b.ID, a.ID)
}

// ManifestRepository implements ports.ManifestRepository.
type ManifestRepository struct {
	uow *UnitOfWork
}

func (r *ManifestRepository) Add(_ context.Context, m *cargo.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return manifests.add(r.uow, m.TransportID(), m.State())
}

func (r *ManifestRepository) Update(_ context.Context, m *cargo.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return manifests.update(r.uow, m.TransportID(), m.State())
}

func (r *ManifestRepository) Get(_ context.Context, transportID kernel.UUID) (*cargo.Manifest, error) {
	return manifests.get(r.uow, transportID)
}

func (r *ManifestRepository) List(_ context.Context) ([]*cargo.Manifest, error) {
	return manifests.list(r.uow, nil, func(a, b cargo.State) int {
		return a.TransportID.Compare(b.TransportID)
	})
}
