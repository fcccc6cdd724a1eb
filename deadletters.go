package shellq

import (
	"context"

	"github.com/shellq/shellq/job"
)

// DeadLetters provides inspection of and recovery from the dead-letter
// queue: the catalog of jobs that exceeded their retry budget.
type DeadLetters interface {

	// List returns up to limit DLQ entries, most recently moved first.
	// If limit is zero or negative, all entries may be returned.
	List(ctx context.Context, limit int) ([]*job.DLQEntry, error)

	// Retry resurrects a dead job: its DLQ entry is removed, and the job
	// itself is flipped back to Pending with Attempts reset to 0, Error
	// and RetryAt cleared. Retry creates no new DLQ entry.
	//
	// Retry returns ErrJobLost if no job with id exists, or
	// ErrBadStatus if the job is not currently Dead.
	Retry(ctx context.Context, id string) error
}
