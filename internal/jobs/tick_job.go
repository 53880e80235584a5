package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"logistics/internal/core/application/pipeline"
	"logistics/internal/core/domain/model/kernel"

	"github.com/robfig/cron/v3"
)

// TickRunner executes the logistics stages for one tick.
type TickRunner interface {
	Run(ctx context.Context, tick kernel.Tick) (pipeline.Report, error)
}

// TickSource advances the simulation clock.
type TickSource interface {
	Advance() kernel.Tick
}

// TickJob advances the clock and runs the pipeline on a fixed interval. A run that is
// still busy when the next one is due makes the scheduler skip that firing.
type TickJob struct {
	runner   TickRunner
	clock    TickSource
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTickJob creates the job. interval is the wall-clock time between ticks.
func NewTickJob(runner TickRunner, clock TickSource, interval time.Duration, logger *slog.Logger) *TickJob {
	logger = logger.With("component", "tick_job")
	return &TickJob{
		runner:   runner,
		clock:    clock,
		interval: interval,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		logger: logger,
	}
}

// RunOnce advances the clock by one tick and runs the pipeline for it.
func (j *TickJob) RunOnce(ctx context.Context) (pipeline.Report, error) {
	tick := j.clock.Advance()
	report, err := j.runner.Run(ctx, tick)
	if err != nil {
		return report, fmt.Errorf("tick %d: %w", uint64(tick), err)
	}
	return report, nil
}

// Start schedules the job every interval.
func (j *TickJob) Start() error {
	if j.interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", j.interval)
	}

	j.mu.Lock()
	j.ctx, j.cancel = context.WithCancel(context.Background())
	ctx := j.ctx
	j.mu.Unlock()

	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		report, runErr := j.RunOnce(ctx)
		if runErr != nil {
			if ctx.Err() == nil {
				j.logger.ErrorContext(ctx, "Tick job failed", "error", runErr)
			}
			return
		}
		if report.Skipped {
			j.logger.DebugContext(ctx, "Tick skipped, economy disabled or not recording", "tick", uint64(report.Tick))
		}
	})
	if err != nil {
		j.cancel()
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(ctx, "Tick job started", "interval", j.interval.String())
	return nil
}

// Stop halts scheduling and waits for a running tick to finish.
func (j *TickJob) Stop() {
	done := j.cron.Stop()
	<-done.Done()

	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.mu.Unlock()
	j.logger.InfoContext(context.Background(), "Tick job stopped")
}
