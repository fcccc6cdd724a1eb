// Package shellq provides a durable, single-node background job queue
// for arbitrary shell commands, with lease-based at-most-once-in-flight
// execution, exponential-backoff retry, and a dead-letter queue for
// permanent failures.
//
// # Overview
//
// shellq models a durable job queue with explicit state transitions. A
// job is an opaque command string plus delivery and scheduling metadata
// (job.Job); success or failure is determined by the child process's
// exit code. The package defines a set of interfaces for enqueuing,
// claiming, observing, purging, and recovering jobs, and does not
// mandate a particular storage backend — the store subpackage supplies
// a SQLite-backed implementation via bun.
//
// # Delivery Semantics
//
// shellq provides at-least-once execution semantics within a single
// node: a job may run more than once if a worker crashes before
// committing its result, or its lease expires before completion.
// Job commands should therefore be idempotent; this is the operator's
// responsibility, not the queue's.
//
// Lease Model
//
// When a job is claimed, it transitions from Pending to Processing and
// receives a lease (LockedBy, LockedUntil). While the lease is valid,
// the job is invisible to other claimers. If the lease expires before
// the worker commits a result, the Scheduler Sweep reclaims it and it
// becomes eligible again, with Attempts unchanged. The Worker
// periodically extends its lease while a command is still running.
//
// # State Machine
//
// Jobs follow this lifecycle:
//
//	Pending    -> Processing
//	Processing -> Completed
//	Processing -> Pending     (retry, or lease reclaim)
//	Processing -> Dead
//	Dead       -> Pending     (manual retry-from-DLQ)
//
// Completed and Dead are terminal and are not retried unless explicitly
// requeued via the DeadLetters.Retry operation.
//
// # Retry Policy
//
// When a command exits non-zero or times out:
//
//   - If the post-increment attempt count does not exceed MaxRetries,
//     the job is rescheduled with RetryAt = now + Delay(attempts, base, cap).
//   - Otherwise, the job transitions to Dead and a DLQEntry is recorded.
//
// Attempts is incremented once per failed execution, never on a
// successful one and never on a lease reclaim.
//
// Worker
//
//	coordinates claiming, executing, retrying and completing jobs, one
//	job at a time, inside a single OS process.
//
// It:
//
//   - runs the Scheduler Sweep (lease reclaim + ready-retry promotion) at
//     the top of every SweepEvery-th loop iteration
//   - claims at most one runnable job per iteration
//   - runs it through an Executor under job_timeout_seconds
//   - extends its own lease at the half-lease mark while the command runs
//   - applies retry/backoff logic, or moves the job to the DLQ, on failure
//   - finishes any in-flight job before honoring a shutdown request
//
// Worker does not guarantee exactly-once execution.
//
// # Interfaces
//
// shellq defines the following primary interfaces:
//
//	Enqueuer    — insert new jobs
//	Claimer     — the claim/commit protocol and lease lifecycle
//	Observer    — inspect job state
//	DeadLetters — inspect and resurrect dead jobs
//	Purger      — remove terminal jobs past a retention window
//	ConfigStore — durable string-keyed runtime configuration
//	Executor    — run a job's command through the OS shell
//
// These interfaces allow storage and execution implementations to be
// plugged in without coupling queue logic to a specific database or OS.
//
// # Concurrency Model
//
// Parallelism comes from running multiple Worker OS processes against
// one shared store, spawned and supervised by a Supervisor (see
// supervisor.go). Within one Worker process, the loop is single-threaded
// and blocking: at most one job is in flight, though its execution runs
// alongside a lease-renewal timer goroutine.
//
// Shutdown is cooperative: a Worker that has claimed a job finishes
// handling it, including the post-execution commit, before exiting.
//
// # Storage Expectations
//
// Implementations of Claimer must ensure atomic state transitions,
// durable persistence, and correct lease handling — in particular, the
// write lock backing Claim must be acquired before the eligible row is
// read, not upgraded afterward.
//
// # Summary
//
// shellq provides a minimal yet structured foundation for running
// durable, retryable shell-command jobs with explicit lifecycle control
// and a pluggable storage backend.
package shellq
