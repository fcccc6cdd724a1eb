package shellq

import (
	"context"

	"github.com/shellq/shellq/job"
)

// Observer provides read-only access to jobs stored in the queue.
//
// Observer does not modify job state and does not participate in lease
// or lifecycle transitions. It is intended for diagnostic, monitoring,
// and administrative use cases.
//
// Methods of Observer return authoritative snapshots of storage state
// at the time of the call. Returned Job values must be treated as
// immutable views; mutating them does not affect the underlying queue.
type Observer interface {

	// Get returns the job identified by id.
	//
	// If no job with the given id exists, Get returns (nil, nil).
	//
	// Get must not change job state.
	Get(ctx context.Context, id string) (*job.Job, error)

	// List returns up to limit jobs matching the provided status.
	//
	// If status is job.Unknown (zero value), implementations may
	// interpret it as "no status filter" and return jobs in any state.
	//
	// If limit is zero or negative, implementations may return all
	// matching jobs, subject to storage-specific constraints.
	//
	// List is intended for inspection and administrative tools and
	// should not be used as part of the normal consumption workflow.
	List(ctx context.Context, status job.Status, limit int) ([]*job.Job, error)

	// Counts returns the number of jobs currently in each state, used by
	// the status CLI command.
	Counts(ctx context.Context) (map[job.Status]int64, error)
}
