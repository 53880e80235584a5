package pipeline

import (
	"log/slog"
	"time"

	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/domain/services"
	"logistics/internal/core/ports"
)

// Dependencies are the collaborators every stage draws from.
type Dependencies struct {
	UnitOfWork   ports.UnitOfWorkFactory
	Catalogs     ports.CatalogProvider
	Nodes        ports.NodeDirectory
	Storehouses  ports.Storehouses
	Construction ports.ConstructionLedger
	Transports   ports.TransportDirectory
	Conditions   ports.RouteConditions
	Clock        ports.Clock
	Gate         ports.SimulationGate
	Metrics      ports.MetricsRecorder
	Logger       *slog.Logger

	Policy commands.Policy

	// NominalSpeed is the travel speed in world units per second used for route
	// estimates.
	NominalSpeed float64
	// ArrivalRadius is the proximity arrival distance; zero means the default.
	ArrivalRadius float64
	// ArrivalWarnEvery throttles the missing-signal warning in simulated time.
	ArrivalWarnEvery time.Duration
}

// Build wires the standard stage order: generator, planner, reservation manager,
// dispatcher, router, rerouter, progression, delivery, then cargo decay and aggregation.
func Build(d Dependencies) (*Pipeline, error) {
	calculator, err := services.NewRouteCalculator(d.NominalSpeed, d.Clock.TickDuration())
	if err != nil {
		return nil, err
	}
	detector := services.NewArrivalDetector(d.ArrivalRadius, d.ArrivalWarnEvery, d.Clock.TickDuration())

	stages := []Stage{
		{StageGenerator, commands.NewGenerateOrdersCommandHandler(
			d.UnitOfWork, d.Catalogs, d.Nodes, d.Storehouses, d.Construction, d.Policy, d.Metrics, d.Logger)},
		{StagePlanner, commands.NewPlanOrdersCommandHandler(
			d.UnitOfWork, d.Catalogs, d.Nodes, d.Conditions, calculator, d.Policy, d.Metrics, d.Logger)},
		{StageReservations, commands.NewManageReservationsCommandHandler(
			d.UnitOfWork, d.Policy, d.Metrics, d.Logger)},
		{StageDispatcher, commands.NewDispatchOrdersCommandHandler(
			d.UnitOfWork, d.Catalogs, d.Transports, d.Policy, d.Metrics, d.Logger)},
		{StageRouter, commands.NewRouteShipmentsCommandHandler(
			d.UnitOfWork, d.Nodes, d.Conditions, calculator, d.Policy, d.Metrics, d.Logger)},
		{StageRerouter, commands.NewRerouteShipmentsCommandHandler(
			d.UnitOfWork, d.Nodes, d.Conditions, calculator, d.Policy, d.Metrics, d.Logger)},
		{StageProgression, commands.NewProgressShipmentsCommandHandler(
			d.UnitOfWork, d.Nodes, d.Transports, d.Storehouses, detector, d.Policy, d.Metrics, d.Logger)},
		{StageDelivery, commands.NewSettleDeliveriesCommandHandler(
			d.UnitOfWork, d.Nodes, d.Storehouses, d.Construction, d.Metrics, d.Logger)},
		{StageCargoDecay, commands.NewDecayCargoCommandHandler(
			d.UnitOfWork, d.Catalogs, d.Metrics, d.Logger)},
		{StageCargoSummary, commands.NewAggregateCargoCommandHandler(
			d.UnitOfWork, d.Catalogs, d.Logger)},
	}
	return New(d.Gate, d.Metrics, d.Logger, stages...), nil
}
