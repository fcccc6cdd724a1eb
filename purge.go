package shellq

import (
	"context"
	"log/slog"
	"time"

	"github.com/shellq/shellq/internal"
	"github.com/shellq/shellq/job"
)

// PurgeConfig defines the scheduling and filtering parameters for a
// PurgeWorker.
//
// Status specifies which terminal job state to purge: job.Completed or
// job.Dead, or job.Unknown for both.
//
// Interval defines how often the purge task runs.
//
// Before restricts deletion to jobs whose UpdatedAt is older than
// now - Delta. A zero Delta purges every job in Status.
type PurgeConfig struct {
	Status   job.Status
	Interval time.Duration
	Before   bool
	Delta    time.Duration
}

// PurgeWorker periodically invokes a Purger implementation according to
// the provided configuration, implementing the retention window from
// spec.md §4.1 ("purge_after_seconds").
//
// PurgeWorker does not participate in job processing and does not affect
// lease timeouts.
//
// PurgeWorker has a strict lifecycle:
//   - Start may only be called once.
//   - Stop must be called to terminate the worker.
//   - Stop waits for the internal task to finish or until the timeout
//     expires.
type PurgeWorker struct {
	lcBase
	purger   Purger
	task     internal.TimerTask
	log      *slog.Logger
	status   job.Status
	interval time.Duration
	before   bool
	delta    time.Duration
}

// NewPurgeWorker creates a new PurgeWorker using the provided Purger
// implementation and configuration.
//
// The worker is not started automatically. Call Start to begin periodic
// purging.
func NewPurgeWorker(purger Purger, config *PurgeConfig, log *slog.Logger) *PurgeWorker {
	return &PurgeWorker{
		purger:   purger,
		log:      log,
		status:   config.Status,
		interval: config.Interval,
		before:   config.Before,
		delta:    config.Delta,
	}
}

func (pw *PurgeWorker) beforeStamp() *time.Time {
	if !pw.before {
		return nil
	}
	ret := time.Now()
	if pw.delta != 0 {
		ret = ret.Add(-pw.delta)
	}
	return &ret
}

func (pw *PurgeWorker) purge(ctx context.Context) {
	before := pw.beforeStamp()
	count, err := pw.purger.PurgeBefore(ctx, pw.status, before)
	if err != nil {
		pw.log.Error("error while purging", "status", pw.status, "error", err)
		return
	}
	if count > 0 {
		pw.log.Info("purged jobs", "status", pw.status, "count", count)
	}
}

// Start begins periodic execution of the purge task.
//
// Start returns ErrDoubleStarted if the worker has already been started.
//
// The provided context controls cancellation of the background task.
func (pw *PurgeWorker) Start(ctx context.Context) error {
	if err := pw.tryStart(); err != nil {
		return err
	}
	pw.task.Start(ctx, pw.purge, pw.interval)
	return nil
}

// Stop terminates the background purge task.
//
// Stop waits until the task finishes or the specified timeout expires.
// If shutdown does not complete within the timeout, ErrStopTimeout is
// returned.
//
// Stop returns ErrDoubleStopped if the worker is not running.
func (pw *PurgeWorker) Stop(timeout time.Duration) error {
	return pw.tryStop(timeout, pw.task.Stop)
}
