package shellq

import (
	"context"
	"errors"
	"time"

	"github.com/shellq/shellq/job"
)

var (
	// ErrJobLost indicates that the referenced job no longer exists in
	// storage or cannot be found in its expected state.
	ErrJobLost = errors.New("job lost")

	// ErrLockLost indicates that the caller no longer owns the job's
	// lease. This typically happens when the lease expired and the
	// Scheduler Sweep reclaimed the job, or another worker claimed it,
	// before the current worker could commit its result.
	ErrLockLost = errors.New("lease lost")

	// ErrCompleteFailed indicates that a job could not be completed
	// because it was not in the Processing state, or its lease was no
	// longer held by the caller.
	ErrCompleteFailed = errors.New("complete failed")
)

// Claimer defines the read-write contract for consuming and managing
// jobs in the queue lifecycle. It is the atomic "pick next runnable job"
// protocol plus the transitions out of Processing.
//
// Claimer provides lease semantics: Claim transitions a job from Pending
// to Processing and stamps it with a time-bounded lease (locked_until).
// While the lease is live, the job is invisible to other claimers. If a
// worker crashes or fails to commit before the lease expires,
// ReclaimExpiredLeases returns the job to Pending without incrementing
// Attempts.
type Claimer interface {

	// Claim selects the single highest-ranked runnable job (§4.1
	// ordering: priority-class ascending, then priority descending, then
	// created_at ascending) and atomically transitions it to Processing,
	// incrementing Attempts is NOT performed here — Attempts is only
	// incremented on recorded failure (ScheduleRetry/MoveToDLQ), per
	// spec.md §3 ("attempts: count of executions that have completed
	// with a non-zero exit or timeout").
	//
	// Claim sets LockedBy=workerID, LockedUntil=now+lease, bumps
	// UpdatedAt, and returns the updated row. If no job is runnable, it
	// returns (nil, nil) without modifying any state.
	//
	// Claim must execute under a write lock acquired before reading, not
	// upgraded after — a read-then-write race would let two callers
	// claim the same row.
	Claim(ctx context.Context, workerID int, lease time.Duration) (*job.Job, error)

	// ExtendLease extends the lease of a job currently in the Processing
	// state, owned by workerID. If the job is no longer Processing, or
	// its lease is no longer held by workerID, ErrLockLost is returned.
	ExtendLease(ctx context.Context, j *job.Job, workerID int, lease time.Duration) error

	// MarkCompleted transitions a job from Processing to Completed.
	// Requires LockedBy == workerID; fails with ErrCompleteFailed
	// otherwise. Clears the lease.
	MarkCompleted(ctx context.Context, id string, workerID int) error

	// ScheduleRetry transitions a job from Processing back to Pending,
	// recording the post-increment attempt count, the computed RetryAt,
	// and an error snippet. Requires LockedBy == workerID; fails with
	// ErrLockLost otherwise. Clears the lease.
	ScheduleRetry(ctx context.Context, id string, workerID int, attempts uint32, retryAt time.Time, errMsg string) error

	// MoveToDLQ transitions a job to Dead and inserts a DLQ entry with
	// the given reason. Requires LockedBy == workerID; fails with
	// ErrLockLost otherwise. Clears the lease. attempts is the
	// post-increment attempt count recorded on the job row.
	MoveToDLQ(ctx context.Context, id string, workerID int, attempts uint32, reason string) error

	// ReclaimExpiredLeases clears the lease and returns to Pending every
	// job whose state is Processing and whose LockedUntil has passed.
	// Attempts is not incremented and RetryAt is not changed; it is
	// either null or already elapsed, so the job is immediately eligible.
	// Returns the number of jobs reclaimed.
	ReclaimExpiredLeases(ctx context.Context, now time.Time) (int64, error)

	// PromoteReadyRetries is the other half of the Scheduler Sweep
	// alongside ReclaimExpiredLeases. Claim's own retry_at filter already
	// makes a Pending job with an elapsed RetryAt immediately eligible,
	// so no state flip is strictly required here; PromoteReadyRetries
	// exists as a named, callable operation that bumps UpdatedAt on
	// those rows for observability. Returns the number of jobs touched.
	PromoteReadyRetries(ctx context.Context, now time.Time) (int64, error)
}
