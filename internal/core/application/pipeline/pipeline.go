// Package pipeline runs the logistics stages once per simulation tick in their fixed
// order. Each stage commits its own unit of work, so a stage sees everything the stages
// before it changed in the same tick.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
)

// Stage names, in execution order.
const (
	StageGenerator    = "generator"
	StagePlanner      = "planner"
	StageReservations = "reservations"
	StageDispatcher   = "dispatcher"
	StageRouter       = "router"
	StageRerouter     = "rerouter"
	StageProgression  = "progression"
	StageDelivery     = "delivery"
	StageCargoDecay   = "cargo_decay"
	StageCargoSummary = "cargo_aggregation"
)

// Handler is one pipeline stage.
type Handler interface {
	Handle(ctx context.Context, cmd commands.TickCommand) error
}

// Stage pairs a handler with the name used in logs and metrics.
type Stage struct {
	Name    string
	Handler Handler
}

// Report summarises one Run.
type Report struct {
	Tick     kernel.Tick
	Skipped  bool
	Stages   int
	Duration time.Duration
}

// Pipeline executes its stages in order for one tick.
type Pipeline struct {
	stages  []Stage
	gate    ports.SimulationGate
	metrics ports.MetricsRecorder
	logger  *slog.Logger
}

func New(gate ports.SimulationGate, metrics ports.MetricsRecorder, logger *slog.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{
		stages:  stages,
		gate:    gate,
		metrics: metrics,
		logger:  logger.With("component", "pipeline"),
	}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Run executes every stage for tick. Nothing runs unless the economy is enabled and the
// simulation is recording. The first failing stage stops the run; its changes are rolled
// back and the next tick starts over from the committed state.
func (p *Pipeline) Run(ctx context.Context, tick kernel.Tick) (Report, error) {
	report := Report{Tick: tick}
	if !p.gate.EconomyEnabled() || !p.gate.Recording() {
		report.Skipped = true
		return report, nil
	}

	cmd := commands.NewTickCommand(tick)
	started := time.Now()
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		stageStart := time.Now()
		err := s.Handler.Handle(ctx, cmd)
		if p.metrics != nil {
			p.metrics.StageCompleted(s.Name, time.Since(stageStart), err)
		}
		if err != nil {
			p.logger.ErrorContext(ctx, "stage failed", "stage", s.Name, "tick", uint64(tick), "error", err)
			report.Duration = time.Since(started)
			return report, fmt.Errorf("stage %s: %w", s.Name, err)
		}
		report.Stages++
	}
	report.Duration = time.Since(started)

	p.logger.DebugContext(ctx, "tick processed", "tick", uint64(tick), "duration", report.Duration)
	return report, nil
}
