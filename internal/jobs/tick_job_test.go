package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"logistics/internal/adapters/out/simulation"
	"logistics/internal/core/application/pipeline"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu    sync.Mutex
	ticks []kernel.Tick
	err   error
}

func (r *recordingRunner) Run(_ context.Context, tick kernel.Tick) (pipeline.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, tick)
	return pipeline.Report{Tick: tick, Stages: 10}, r.err
}

func (r *recordingRunner) seen() []kernel.Tick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kernel.Tick(nil), r.ticks...)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTickJob_RunOnceAdvancesClock(t *testing.T) {
	runner := &recordingRunner{}
	clock := simulation.NewClock(41, time.Second)
	job := jobs.NewTickJob(runner, clock, time.Second, discard())

	report, err := job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, kernel.Tick(42), report.Tick)

	_, err = job.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []kernel.Tick{42, 43}, runner.seen())
	assert.Equal(t, kernel.Tick(43), clock.Now())
}

func TestTickJob_RunOnceWrapsFailure(t *testing.T) {
	boom := errors.New("boom")
	job := jobs.NewTickJob(&recordingRunner{err: boom}, simulation.NewClock(0, time.Second), time.Second, discard())

	_, err := job.RunOnce(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "tick 1")
}

func TestTickJob_RejectsNonPositiveInterval(t *testing.T) {
	job := jobs.NewTickJob(&recordingRunner{}, simulation.NewClock(0, time.Second), 0, discard())
	assert.Error(t, job.Start())
}

func TestJobManager_RunsTicksUntilStopped(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the scheduler")
	}
	runner := &recordingRunner{}
	clock := simulation.NewClock(0, time.Second)
	manager := jobs.NewJobManager(jobs.NewTickJob(runner, clock, time.Second, discard()), nil)

	require.NoError(t, manager.StartAll())
	require.Eventually(t, func() bool { return len(runner.seen()) >= 1 }, 3*time.Second, 50*time.Millisecond)
	manager.StopAll()

	stopped := len(runner.seen())
	time.Sleep(1200 * time.Millisecond)
	assert.Len(t, runner.seen(), stopped)
	assert.Equal(t, kernel.Tick(stopped), clock.Now())
}
