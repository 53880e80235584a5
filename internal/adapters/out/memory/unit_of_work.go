package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"
)

var (
	ErrNoActiveUnitOfWork = errors.New("unit of work is not active")
	ErrAlreadyExists      = errors.New("object already exists")
)

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork buffers changes until Commit. Repository calls made before Begin apply
// immediately.
type UnitOfWork struct {
	store  *Store
	active bool
	staged []func(*Store)
	added  map[kernel.UUID]bool
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.staged = nil
	u.added = make(map[kernel.UUID]bool)
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoActiveUnitOfWork
	}
	u.store.mu.Lock()
	for _, apply := range u.staged {
		apply(u.store)
	}
	u.store.mu.Unlock()

	u.active = false
	u.staged = nil
	u.added = nil
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoActiveUnitOfWork
	}
	u.active = false
	u.staged = nil
	u.added = nil
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) ReservationRepository() ports.ReservationRepository {
	return &ReservationRepository{uow: u}
}

func (u *UnitOfWork) ShipmentRepository() ports.ShipmentRepository {
	return &ShipmentRepository{uow: u}
}

func (u *UnitOfWork) RouteRepository() ports.RouteRepository {
	return &RouteRepository{uow: u}
}

func (u *UnitOfWork) ManifestRepository() ports.ManifestRepository {
	return &ManifestRepository{uow: u}
}

func (u *UnitOfWork) apply(change func(*Store)) {
	if u.active {
		u.staged = append(u.staged, change)
		return
	}
	u.store.mu.Lock()
	change(u.store)
	u.store.mu.Unlock()
}

// table binds the generic helpers to one map of the store.
type table[S, T any] struct {
	name    string
	pick    func(*Store) map[kernel.UUID]S
	restore func(S) (T, error)
}

func (t table[S, T]) exists(u *UnitOfWork, id kernel.UUID) bool {
	if u.added[id] {
		return true
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	_, ok := t.pick(u.store)[id]
	return ok
}

func (t table[S, T]) add(u *UnitOfWork, id kernel.UUID, st S) error {
	if t.exists(u, id) {
		return fmt.Errorf("%s %s: %w", t.name, id, ErrAlreadyExists)
	}
	if u.active {
		u.added[id] = true
	}
	u.apply(func(s *Store) { t.pick(s)[id] = st })
	return nil
}

func (t table[S, T]) update(u *UnitOfWork, id kernel.UUID, st S) error {
	if !t.exists(u, id) {
		return errs.NewObjectNotFoundError(t.name, id.String())
	}
	u.apply(func(s *Store) { t.pick(s)[id] = st })
	return nil
}

func (t table[S, T]) remove(u *UnitOfWork, id kernel.UUID) {
	u.apply(func(s *Store) { delete(t.pick(s), id) })
}

func (t table[S, T]) get(u *UnitOfWork, id kernel.UUID) (T, error) {
	u.store.mu.RLock()
	st, ok := t.pick(u.store)[id]
	u.store.mu.RUnlock()
	if !ok {
		var zero T
		return zero, errs.NewObjectNotFoundError(t.name, id.String())
	}
	return t.restore(st)
}

// list restores every committed row accepted by keep, sorted by cmp.
func (t table[S, T]) list(u *UnitOfWork, keep func(S) bool, cmp func(a, b S) int) ([]T, error) {
	u.store.mu.RLock()
	rows := make([]S, 0, len(t.pick(u.store)))
	for _, st := range t.pick(u.store) {
		if keep == nil || keep(st) {
			rows = append(rows, st)
		}
	}
	u.store.mu.RUnlock()

	slices.SortFunc(rows, cmp)
	out := make([]T, 0, len(rows))
	for _, st := range rows {
		v, err := t.restore(st)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func statusFilter[S comparable](statuses []S) func(S) bool {
	if len(statuses) == 0 {
		return func(S) bool { return true }
	}
	return func(s S) bool { return slices.Contains(statuses, s) }
}

func byCreation(aTick, bTick kernel.Tick, aID, bID kernel.UUID) int {
	if aTick != bTick {
		if aTick < bTick {
			return -1
		}
		return 1
	}
	return aID.Compare(bID)
}

var _ ports.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
