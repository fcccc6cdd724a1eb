package job

import "time"

// Job represents a single shell command managed by the queue storage.
//
// CreatedAt records when the job was initially enqueued. UpdatedAt records
// the last state transition or modification.
//
// Status represents the current state in the job lifecycle. Attempts
// counts how many executions have completed with a non-zero exit or
// timeout. LockedBy/LockedUntil together form the lease: while
// LockedUntil is set and in the future, the job is owned by the worker
// named in LockedBy. RetryAt defers pending eligibility after a failure;
// RunAt defers eligibility for the job's first execution.
//
// Job values are snapshots of storage state. Mutating fields directly
// does not change the underlying queue state; transitions must be
// performed through the store's Claimer interface.
type Job struct {
	ID      string
	Command string

	Priority   int
	Attempts   uint32
	MaxRetries uint32

	Status Status

	LockedBy    *int
	LockedUntil *time.Time
	RetryAt     *time.Time
	RunAt       *time.Time

	Error *string

	Metadata map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriorityClass returns 0 for priority-class jobs (Priority > 0) and 1 for
// FIFO-class jobs (Priority == 0), matching the ordering rule of the
// claim protocol: priority-class always wins over FIFO-class.
func (j *Job) PriorityClass() int {
	if j.Priority > 0 {
		return 0
	}
	return 1
}

// Runnable reports whether the job is eligible for claim at instant now,
// per invariant I3: state must be Pending, and both RetryAt and RunAt (if
// set) must not be in the future.
func (j *Job) Runnable(now time.Time) bool {
	if j.Status != Pending {
		return false
	}
	if j.RetryAt != nil && j.RetryAt.After(now) {
		return false
	}
	if j.RunAt != nil && j.RunAt.After(now) {
		return false
	}
	return true
}
