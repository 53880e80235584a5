package cmd

import (
	"fmt"
	"log/slog"

	httpin "logistics/internal/adapters/in/http"
	"logistics/internal/adapters/out/database"
	"logistics/internal/adapters/out/memory"
	"logistics/internal/adapters/out/metrics"
	"logistics/internal/adapters/out/postgres"
	"logistics/internal/adapters/out/simulation"
	"logistics/internal/adapters/out/worldfile"
	"logistics/internal/core/application/pipeline"
	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/application/usecases/queries"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
	"logistics/internal/jobs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB     *gorm.DB
	uowFactory ports.UnitOfWorkFactory

	scenario *worldfile.Scenario
	clock    *simulation.Clock
	gate     *simulation.Gate
	metrics  *metrics.Recorder
	registry *prometheus.Registry
	pipeline *pipeline.Pipeline
}

// NewCompositionRoot loads the world, opens the configured state store and builds the
// pipeline.
func NewCompositionRoot(cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:    cfg,
		logger: logger,
		clock:  simulation.NewClock(kernel.Tick(cfg.Simulation.StartTick), cfg.Simulation.TickDuration),
		gate:   simulation.NewGate(cfg.Simulation.EconomyEnabled, cfg.Simulation.Recording),
	}

	file, err := loadWorldFile(cfg.World)
	if err != nil {
		return nil, err
	}
	if c.scenario, err = file.Build(); err != nil {
		return nil, fmt.Errorf("failed to build world: %w", err)
	}

	switch cfg.State.Driver {
	case DriverMemory:
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
	default:
		if c.gormDB, err = database.Open(cfg.DatabaseConfig()); err != nil {
			return nil, err
		}
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(c.gormDB)
	}

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.metrics = metrics.NewRecorder()
	if err = c.metrics.Register(c.registry); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	w := c.scenario.World
	c.pipeline, err = pipeline.Build(pipeline.Dependencies{
		UnitOfWork:       c.uowFactory,
		Catalogs:         w,
		Nodes:            w.Nodes(),
		Storehouses:      w.Storehouses(),
		Construction:     w.Construction(),
		Transports:       w.Transports(),
		Conditions:       w.Conditions(),
		Clock:            c.clock,
		Gate:             c.gate,
		Metrics:          c.metrics,
		Logger:           logger,
		Policy:           cfg.CommandPolicy(),
		NominalSpeed:     cfg.Simulation.NominalSpeed,
		ArrivalRadius:    cfg.Simulation.ArrivalRadius,
		ArrivalWarnEvery: cfg.Simulation.ArrivalWarnEvery,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	logger.Info("composition root ready",
		"state", cfg.State.Driver,
		"nodes", len(c.scenario.Nodes),
		"transports", len(c.scenario.Transports),
		"stages", len(c.pipeline.Stages()))
	return c, nil
}

func loadWorldFile(cfg WorldConfig) (*worldfile.File, error) {
	if cfg.File == "" {
		return worldfile.Default()
	}
	return worldfile.Load(cfg.File)
}

// Close releases the database connection, if any.
func (c *CompositionRoot) Close() error {
	if c.gormDB == nil {
		return nil
	}
	return database.Close(c.gormDB)
}

func (c *CompositionRoot) Scenario() *worldfile.Scenario       { return c.scenario }
func (c *CompositionRoot) Gate() *simulation.Gate              { return c.gate }
func (c *CompositionRoot) Clock() *simulation.Clock            { return c.clock }
func (c *CompositionRoot) Registry() *prometheus.Registry      { return c.registry }
func (c *CompositionRoot) Pipeline() *pipeline.Pipeline        { return c.pipeline }
func (c *CompositionRoot) UnitOfWork() ports.UnitOfWorkFactory { return c.uowFactory }

func (c *CompositionRoot) CreateCreateOrderCommandHandler() *commands.CreateOrderCommandHandler {
	w := c.scenario.World
	return commands.NewCreateOrderCommandHandler(c.uowFactory, w, w.Nodes(), c.clock, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetShipmentsQueryHandler() queries.GetShipmentsQueryHandler {
	return queries.NewGetShipmentsQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateGetActiveOrdersQueryHandler(),
		c.CreateGetShipmentsQueryHandler(),
		c.clock,
		c.gate,
		c.logger,
	)
}

func (c *CompositionRoot) CreateTickJob() *jobs.TickJob {
	return jobs.NewTickJob(c.pipeline, c.clock, c.cfg.Simulation.TickInterval, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	var report *jobs.StatusReportJob
	if c.cfg.Simulation.StatusReport != "" {
		report = jobs.NewStatusReportJob(
			c.CreateGetActiveOrdersQueryHandler(),
			c.CreateGetShipmentsQueryHandler(),
			c.cfg.Simulation.StatusReport,
			c.logger,
		)
	}
	return jobs.NewJobManager(c.CreateTickJob(), report)
}
