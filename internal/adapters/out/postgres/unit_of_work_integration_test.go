package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "logistics/internal/adapters/out/postgres"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/core/domain/model/route"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite runs the unit of work against a real PostgreSQL
// database, where a transaction is isolated from other connections.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func TestUnitOfWorkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration tests in short mode")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}

// SetupSuite starts PostgreSQL and migrates the schema once for all tests.
func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

// SetupTest truncates every table so tests do not see each other's rows.
func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders, reservations, shipments, shipment_allocations, routes, manifests, manifest_items").Error
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestFactoryCreatesSeparateInstances() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow2.ManifestRepository())
}

// Writes inside an open transaction stay invisible to other units of work until commit.
func (suite *UnitOfWorkIntegrationTestSuite) TestWritesAreIsolatedUntilCommit() {
	ctx := context.Background()
	f := newFixture(suite.T(), 1)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, f.order))
	suite.Require().NoError(uow.ShipmentRepository().Add(ctx, f.shipment))

	_, err := uow.OrderRepository().Get(ctx, f.order.ID())
	suite.Require().NoError(err, "the transaction sees its own writes")

	other := suite.factory.Create()
	_, err = other.OrderRepository().Get(ctx, f.order.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	_, err = other.ShipmentRepository().Get(ctx, f.shipment.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	suite.Require().NoError(uow.Commit(ctx))

	got, err := other.OrderRepository().Get(ctx, f.order.ID())
	suite.Require().NoError(err)
	suite.Equal(f.order.State(), got.State())
	sh, err := other.ShipmentRepository().Get(ctx, f.shipment.ID())
	suite.Require().NoError(err)
	suite.Equal(f.shipment.State(), sh.State())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollbackDiscardsEveryRepository() {
	ctx := context.Background()
	f := newFixture(suite.T(), 1)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, f.order))
	suite.Require().NoError(uow.ReservationRepository().Add(ctx, f.hold))
	suite.Require().NoError(uow.RouteRepository().Add(ctx, f.route))
	suite.Require().NoError(uow.ManifestRepository().Add(ctx, f.manifest))
	suite.Require().NoError(uow.Rollback(ctx))

	check := suite.factory.Create()
	orders, err := check.OrderRepository().List(ctx)
	suite.Require().NoError(err)
	suite.Empty(orders)
	holds, err := check.ReservationRepository().List(ctx)
	suite.Require().NoError(err)
	suite.Empty(holds)
	routes, err := check.RouteRepository().List(ctx)
	suite.Require().NoError(err)
	suite.Empty(routes)
	manifests, err := check.ManifestRepository().List(ctx)
	suite.Require().NoError(err)
	suite.Empty(manifests)
}

// One stage's writes across repositories commit together.
func (suite *UnitOfWorkIntegrationTestSuite) TestStageCommitsAtomically() {
	ctx := context.Background()
	f := newFixture(suite.T(), 2)
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, f.order))
	suite.Require().NoError(suite.factory.Create().RouteRepository().Add(ctx, f.route))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(f.order.Deliver())
	suite.Require().NoError(uow.OrderRepository().Update(ctx, f.order))
	suite.Require().NoError(f.route.Expire())
	suite.Require().NoError(uow.RouteRepository().Update(ctx, f.route))
	suite.Require().NoError(uow.Commit(ctx))

	check := suite.factory.Create()
	delivered, err := check.OrderRepository().List(ctx, order.Delivered)
	suite.Require().NoError(err)
	suite.Len(delivered, 1)
	expired, err := check.RouteRepository().List(ctx, route.Expired)
	suite.Require().NoError(err)
	suite.Len(expired, 1)
	_, err = check.RouteRepository().FindUsable(ctx, f.route.Key(), 2)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionErrors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().Error(uow.Commit(ctx), "Should error when committing without active transaction")
	suite.Require().Error(uow.Rollback(ctx), "Should error when rolling back without active transaction")
}
