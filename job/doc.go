// Package job defines the stateful representation of a command job within
// the shellq queue lifecycle.
//
// A Job carries the opaque shell command string together with delivery
// and scheduling metadata: Status, Attempts, lease information
// (LockedBy/LockedUntil), and the RunAt/RetryAt scheduling timestamps.
// These fields are maintained exclusively by the queue store and worker
// logic.
//
// Job values are typically returned by Claim operations and passed back
// to the store for state transitions (MarkCompleted, ScheduleRetry,
// MoveToDLQ, ...).
//
// Job is not intended to be constructed manually by user code outside of
// enqueue. Its fields reflect the authoritative state stored by the
// queue backend.
package job
