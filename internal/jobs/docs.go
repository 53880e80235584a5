// Package jobs provides scheduled background tasks for the logistics service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. TickJob - Advances the simulation clock and runs the logistics pipeline every tick interval
// 2. StatusReportJob - Logs open orders and shipments on its own schedule
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	tickJob := jobs.NewTickJob(pipeline, clock, time.Second, logger)
//	jobManager := jobs.NewJobManager(tickJob, nil)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// The tick job runs on "@every <interval>"; the scheduler rounds intervals below one
// second up to a second. Firings that come due while a tick is still running are
// skipped, so ticks never overlap and the clock advances once per executed firing.
//
// # Error Handling
//
// - A failed tick is logged; its stage rolled back and the next tick starts from committed state
// - StopAll waits for a running tick to finish
// - Failed job starts will stop any already running jobs
package jobs
