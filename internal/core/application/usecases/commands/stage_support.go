package commands

import (
	"context"
	"errors"
	"slices"
	"time"

	"logistics/internal/core/domain/model/cargo"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/reservation"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"
)

type nopMetrics struct{}

func (nopMetrics) OrderCreated(string)                         {}
func (nopMetrics) OrderFailed(kernel.FailureReason)            {}
func (nopMetrics) OrderDelivered(float64)                      {}
func (nopMetrics) OrdersConsolidated(int)                      {}
func (nopMetrics) ReservationsExpired(int)                     {}
func (nopMetrics) ShipmentTransition(string)                   {}
func (nopMetrics) StageCompleted(string, time.Duration, error) {}
func (nopMetrics) CargoDecayed(float64)                        {}

func metricsOrNop(m ports.MetricsRecorder) ports.MetricsRecorder {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrObjectNotFound)
}

// releaseOrderReservations releases every held reservation of an order.
func releaseOrderReservations(ctx context.Context, repo ports.ReservationRepository, orderID kernel.UUID) error {
	held, err := repo.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, r := range held {
		if !r.Status().IsHeld() {
			continue
		}
		r.Release()
		if err = repo.Update(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// failOrder fails a non-terminal order and releases its reservations in the same unit of
// work. Terminal orders are left alone.
func failOrder(ctx context.Context, uow ports.UnitOfWork, o *order.Order, reason kernel.FailureReason, metrics ports.MetricsRecorder) error {
	if o.IsTerminal() {
		return nil
	}
	if err := o.Fail(reason); err != nil {
		return err
	}
	if err := uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	metrics.OrderFailed(reason)
	return releaseOrderReservations(ctx, uow.ReservationRepository(), o.ID())
}

// failShipment fails a shipment together with every order it carries and drops its cargo
// from the transport manifest.
func failShipment(
	ctx context.Context,
	uow ports.UnitOfWork,
	s *shipment.Shipment,
	reason kernel.FailureReason,
	manifests *manifestSet,
	metrics ports.MetricsRecorder,
) error {
	if err := s.Fail(reason); err != nil {
		return err
	}
	if err := uow.ShipmentRepository().Update(ctx, s); err != nil {
		return err
	}
	metrics.ShipmentTransition(s.Status().String())

	for _, orderID := range s.OrderIDs() {
		o, err := uow.OrderRepository().Get(ctx, orderID)
		if isNotFound(err) {
			if err = releaseOrderReservations(ctx, uow.ReservationRepository(), orderID); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if err = failOrder(ctx, uow, o, reason, metrics); err != nil {
			return err
		}
	}

	if manifests != nil {
		return manifests.removeShipment(ctx, s)
	}
	return nil
}

// manifestSet caches manifests touched during one stage so several shipments on the same
// transport see each other's changes. flush writes them back once.
type manifestSet struct {
	repo    ports.ManifestRepository
	loaded  map[kernel.UUID]*cargo.Manifest
	created map[kernel.UUID]bool
	dirty   map[kernel.UUID]bool
}

func newManifestSet(repo ports.ManifestRepository) *manifestSet {
	return &manifestSet{
		repo:    repo,
		loaded:  make(map[kernel.UUID]*cargo.Manifest),
		created: make(map[kernel.UUID]bool),
		dirty:   make(map[kernel.UUID]bool),
	}
}

// get returns the manifest of a transport, creating an empty one if it has none yet.
func (m *manifestSet) get(ctx context.Context, transportID kernel.UUID) (*cargo.Manifest, error) {
	if mf, ok := m.loaded[transportID]; ok {
		return mf, nil
	}
	mf, err := m.repo.Get(ctx, transportID)
	if isNotFound(err) {
		if mf, err = cargo.NewManifest(transportID); err != nil {
			return nil, err
		}
		m.created[transportID] = true
	} else if err != nil {
		return nil, err
	}
	m.loaded[transportID] = mf
	return mf, nil
}

func (m *manifestSet) load(ctx context.Context, s *shipment.Shipment) error {
	if s.Transport() == nil {
		return nil
	}
	mf, err := m.get(ctx, *s.Transport())
	if err != nil {
		return err
	}
	for _, a := range s.Allocations() {
		if a.Actual <= 0 {
			continue
		}
		if err = mf.Add(cargo.Item{
			ResourceID:    a.ResourceID,
			Amount:        a.Actual,
			ShipmentID:    s.ID(),
			ContainerSlot: a.ContainerSlot,
		}); err != nil {
			return err
		}
	}
	m.dirty[*s.Transport()] = true
	return nil
}

func (m *manifestSet) removeShipment(ctx context.Context, s *shipment.Shipment) error {
	if s.Transport() == nil || !s.HasDeparted() {
		return nil
	}
	mf, err := m.get(ctx, *s.Transport())
	if err != nil {
		return err
	}
	if mf.RemoveShipment(s.ID()) > 0 {
		m.dirty[*s.Transport()] = true
	}
	return nil
}

func (m *manifestSet) flush(ctx context.Context) error {
	ids := make([]kernel.UUID, 0, len(m.dirty))
	for id := range m.dirty {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, kernel.UUID.Compare)

	for _, id := range ids {
		mf := m.loaded[id]
		var err error
		if m.created[id] {
			err = m.repo.Add(ctx, mf)
		} else {
			err = m.repo.Update(ctx, mf)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type slotKey struct {
	node    kernel.UUID
	service node.ServiceType
}

// holdIndex is rebuilt at the start of a stage from committed reservations: held
// inventory per order, Active service holds per order and slot usage per node.
type holdIndex struct {
	inventory map[kernel.UUID]*reservation.Reservation
	services  map[kernel.UUID][]*reservation.Reservation
	slotsUsed map[slotKey]int
}

func buildHoldIndex(ctx context.Context, repo ports.ReservationRepository) (*holdIndex, error) {
	held, err := repo.List(ctx, reservation.Active, reservation.Committed)
	if err != nil {
		return nil, err
	}
	idx := &holdIndex{
		inventory: make(map[kernel.UUID]*reservation.Reservation),
		services:  make(map[kernel.UUID][]*reservation.Reservation),
		slotsUsed: make(map[slotKey]int),
	}
	for _, r := range held {
		switch r.Kind() {
		case reservation.Inventory:
			if _, ok := idx.inventory[r.OrderID()]; !ok {
				idx.inventory[r.OrderID()] = r
			}
		case reservation.Service:
			if r.Status() != reservation.Active {
				continue
			}
			idx.services[r.OrderID()] = append(idx.services[r.OrderID()], r)
			idx.slotsUsed[slotKey{node: r.HolderID(), service: r.ServiceType()}]++
		}
	}
	return idx, nil
}

// hasFreeSlot reports whether the node has a free slot of the given type.
func (i *holdIndex) hasFreeSlot(n *node.Node, service node.ServiceType) bool {
	return i.slotsUsed[slotKey{node: n.ID(), service: service}] < n.Services().Slots(service)
}

func (i *holdIndex) takeSlot(r *reservation.Reservation) {
	i.slotsUsed[slotKey{node: r.HolderID(), service: r.ServiceType()}]++
	i.services[r.OrderID()] = append(i.services[r.OrderID()], r)
}

// releaseService releases the order's Active service holds of one type.
func (i *holdIndex) releaseService(ctx context.Context, repo ports.ReservationRepository, orderID kernel.UUID, service node.ServiceType) error {
	kept := i.services[orderID][:0]
	for _, r := range i.services[orderID] {
		if r.ServiceType() != service {
			kept = append(kept, r)
			continue
		}
		r.Release()
		if err := repo.Update(ctx, r); err != nil {
			return err
		}
		i.slotsUsed[slotKey{node: r.HolderID(), service: service}]--
	}
	i.services[orderID] = kept
	return nil
}
