package jobs

import (
	"fmt"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	tickJob   *TickJob
	reportJob *StatusReportJob
}

// NewJobManager creates a job manager. reportJob may be nil when status reports are off.
func NewJobManager(tickJob *TickJob, reportJob *StatusReportJob) *JobManager {
	return &JobManager{
		tickJob:   tickJob,
		reportJob: reportJob,
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.tickJob.Start(); err != nil {
		return fmt.Errorf("failed to start tick job: %w", err)
	}

	if jm.reportJob != nil {
		if err := jm.reportJob.Start(); err != nil {
			// Stop already started jobs if this one fails
			jm.tickJob.Stop()
			return fmt.Errorf("failed to start status report job: %w", err)
		}
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.reportJob != nil {
		jm.reportJob.Stop()
	}
	jm.tickJob.Stop()
}
