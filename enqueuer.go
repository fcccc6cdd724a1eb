package shellq

import (
	"context"

	"github.com/shellq/shellq/job"
)

// Enqueuer defines the write-side entry point of the queue.
type Enqueuer interface {

	// Enqueue inserts a new job in the Pending state.
	//
	// Enqueue fails with ErrDuplicateID if a job with the same ID already
	// exists; in that case the existing job is left untouched.
	//
	// Implementations must persist the job durably before returning nil,
	// and must not mutate j after returning.
	Enqueue(ctx context.Context, j *job.Job) error
}
