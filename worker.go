package shellq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shellq/shellq/job"
)

// WorkerConfig defines runtime behavior of a Worker.
//
// ID identifies the worker (spec.md §4.5: "the worker identifier is the
// OS process id" — callers typically pass os.Getpid()).
//
// PollInterval is how long the worker sleeps when no job is runnable.
//
// LeaseSeconds is the lease duration stamped on each claimed job.
//
// JobTimeout bounds a single command's execution.
//
// SweepEvery rate-limits the Scheduler Sweep (ReclaimExpiredLeases +
// PromoteReadyRetries) to run only once every N loop iterations (idle
// or not), since it is a store round-trip and need not run on every poll.
//
// BackoffBase/BackoffCap feed Delay for computing RetryAt.
type WorkerConfig struct {
	ID           int
	PollInterval time.Duration
	LeaseSeconds time.Duration
	JobTimeout   time.Duration
	SweepEvery   int
	BackoffBase  uint64
	BackoffCap   uint64
}

// Worker is the long-lived, single-OS-process loop described by spec.md
// §4.5: claim one job, run it via an Executor, commit its result
// (completion, scheduled retry, or DLQ move), repeat.
//
// Worker has a strict lifecycle: Run blocks until ctx is canceled; it
// always finishes an in-flight job — including its commit — before
// returning, per spec.md §5's cooperative shutdown rule.
type Worker struct {
	lcBase

	claimer  Claimer
	executor Executor
	log      *slog.Logger
	cfg      WorkerConfig

	halfLease time.Duration
	sweepTick int
}

// NewWorker constructs a Worker. The worker is not started automatically;
// call Run to begin processing.
func NewWorker(claimer Claimer, executor Executor, cfg WorkerConfig, log *slog.Logger) *Worker {
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = 1
	}
	return &Worker{
		claimer:   claimer,
		executor:  executor,
		log:       log,
		cfg:       cfg,
		halfLease: cfg.LeaseSeconds / 2,
	}
}

// Run executes the worker loop until ctx is canceled. It returns
// ErrDoubleStarted if already running. Store or claim errors encountered
// mid-loop are logged and the loop continues, per spec.md §7.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.tryStart(); err != nil {
		return err
	}
	defer w.state.Store(stopped)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		w.sweep(ctx)

		claimed, err := w.claimer.Claim(ctx, w.cfg.ID, w.cfg.LeaseSeconds)
		if err != nil {
			w.log.Error("claim failed", "worker", w.cfg.ID, "err", err)
			claimed = nil
		}
		if claimed == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			continue
		}

		// Once a job is claimed it runs to completion regardless of ctx
		// cancellation: shutdown is cooperative, not truncating, so the
		// in-flight job's execution and commit use a detached context
		// rather than the one carrying the shutdown signal.
		w.process(context.Background(), claimed)
	}
}

func (w *Worker) sweep(ctx context.Context) {
	w.sweepTick++
	if w.sweepTick%w.cfg.SweepEvery != 0 {
		return
	}
	now := time.Now()

	n, err := w.claimer.ReclaimExpiredLeases(ctx, now)
	if err != nil {
		w.log.Error("lease reclaim failed", "worker", w.cfg.ID, "err", err)
	} else if n > 0 {
		w.log.Info("reclaimed expired leases", "worker", w.cfg.ID, "count", n)
	}

	if _, err := w.claimer.PromoteReadyRetries(ctx, now); err != nil {
		w.log.Error("promote ready retries failed", "worker", w.cfg.ID, "err", err)
	}
}

// execOutcome carries an Executor outcome (or an error Execute itself
// returned, distinct from the command's own exit code) back to the
// worker loop from the goroutine running it.
type execOutcome struct {
	result Result
	err    error
}

// runWithLeaseRenewal runs the job's command in a goroutine while the
// caller extends the job's lease at the half-lease mark — the teacher's
// handleOrExtend pattern, adapted to a single in-flight job instead of a
// pool of N.
func (w *Worker) runWithLeaseRenewal(ctx context.Context, j *job.Job) execOutcome {
	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan execOutcome, 1)
	go func() {
		res, err := w.executor.Execute(execCtx, j.Command, w.cfg.JobTimeout)
		done <- execOutcome{result: res, err: err}
	}()

	if w.halfLease <= 0 {
		return <-done
	}

	timer := time.NewTimer(w.halfLease)
	defer timer.Stop()
	for {
		select {
		case r := <-done:
			return r
		case <-timer.C:
			if err := w.claimer.ExtendLease(ctx, j, w.cfg.ID, w.cfg.LeaseSeconds); err != nil {
				cancel()
				<-done // wait for the executor goroutine to observe cancellation
				return execOutcome{err: fmt.Errorf("%w: lease extension failed", ErrLockLost)}
			}
			timer.Reset(w.halfLease)
		}
	}
}

func (w *Worker) process(ctx context.Context, j *job.Job) {
	outcome := w.runWithLeaseRenewal(ctx, j)
	if outcome.err != nil {
		if errors.Is(outcome.err, ErrLockLost) {
			w.log.Warn("job lease lost during execution", "id", j.ID, "worker", w.cfg.ID)
			return
		}
		w.log.Error("executor error", "id", j.ID, "worker", w.cfg.ID, "err", outcome.err)
		w.fail(ctx, j, "executor error: "+outcome.err.Error())
		return
	}

	res := outcome.result
	if res.Success() {
		if err := w.claimer.MarkCompleted(ctx, j.ID, w.cfg.ID); err != nil {
			if !errors.Is(err, ErrCompleteFailed) {
				w.log.Error("cannot mark completed", "id", j.ID, "worker", w.cfg.ID, "err", err)
			}
		}
		return
	}

	reason := fmt.Sprintf("exit_code=%d timed_out=%t stderr=%q", res.ExitCode, res.TimedOut, truncate(res.Stderr, 512))
	w.fail(ctx, j, reason)
}

func (w *Worker) fail(ctx context.Context, j *job.Job, reason string) {
	newAttempts := j.Attempts + 1
	if newAttempts <= j.MaxRetries {
		delaySeconds := Delay(newAttempts, w.cfg.BackoffBase, w.cfg.BackoffCap)
		retryAt := time.Now().Add(time.Duration(delaySeconds) * time.Second)
		if err := w.claimer.ScheduleRetry(ctx, j.ID, w.cfg.ID, newAttempts, retryAt, reason); err != nil {
			if !errors.Is(err, ErrLockLost) {
				w.log.Error("cannot schedule retry", "id", j.ID, "worker", w.cfg.ID, "err", err)
			}
		}
		return
	}
	if err := w.claimer.MoveToDLQ(ctx, j.ID, w.cfg.ID, newAttempts, reason); err != nil {
		if !errors.Is(err, ErrLockLost) {
			w.log.Error("cannot move job to dlq", "id", j.ID, "worker", w.cfg.ID, "err", err)
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
