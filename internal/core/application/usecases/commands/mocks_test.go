package commands_test

import (
	"context"
	"errors"
	"time"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockOrderRepository) Update(_ context.Context, _ *order.Order) error { return nil }
func (m *MockOrderRepository) Get(_ context.Context, _ kernel.UUID) (*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockOrderRepository) List(_ context.Context, _ ...order.Status) ([]*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockOrderRepository) ListActive(_ context.Context) ([]*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}
func (m *MockUoW) ReservationRepository() ports.ReservationRepository { return nil }
func (m *MockUoW) ShipmentRepository() ports.ShipmentRepository       { return nil }
func (m *MockUoW) RouteRepository() ports.RouteRepository             { return nil }
func (m *MockUoW) ManifestRepository() ports.ManifestRepository       { return nil }

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() ports.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ports.UnitOfWork)
}

type MockNodeDirectory struct{ mock.Mock }

func (m *MockNodeDirectory) Get(ctx context.Context, id kernel.UUID) (*node.Node, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*node.Node)
	return n, args.Error(1)
}
func (m *MockNodeDirectory) List(_ context.Context) ([]*node.Node, error) {
	return nil, errors.New("not implemented in mock")
}

type fixedClock kernel.Tick

func (c fixedClock) Now() kernel.Tick            { return kernel.Tick(c) }
func (c fixedClock) TickDuration() time.Duration { return time.Second }

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) OrderCreated(kind string)                { m.Called(kind) }
func (m *MockMetrics) OrderFailed(reason kernel.FailureReason) { m.Called(reason) }
func (m *MockMetrics) OrderDelivered(amount float64)           { m.Called(amount) }
func (m *MockMetrics) OrdersConsolidated(n int)                { m.Called(n) }
func (m *MockMetrics) ReservationsExpired(n int)               { m.Called(n) }
func (m *MockMetrics) ShipmentTransition(status string)        { m.Called(status) }
func (m *MockMetrics) CargoDecayed(amount float64)             { m.Called(amount) }
func (m *MockMetrics) StageCompleted(stage string, d time.Duration, err error) {
	m.Called(stage, d, err)
}

var errCommitRejected = errors.New("commit rejected")

// failingCommitFactory wraps real units of work whose Commit always fails and rolls back.
type failingCommitFactory struct {
	inner ports.UnitOfWorkFactory
}

func (f failingCommitFactory) Create() ports.UnitOfWork {
	return failingCommitUoW{UnitOfWork: f.inner.Create()}
}

type failingCommitUoW struct {
	ports.UnitOfWork
}

func (u failingCommitUoW) Commit(ctx context.Context) error {
	_ = u.UnitOfWork.Rollback(ctx)
	return errCommitRejected
}
