package shellq

import (
	"context"
	"errors"
	"time"

	"github.com/shellq/shellq/job"
)

var (
	// ErrBadStatus indicates that an invalid job status was supplied to
	// Purger.
	//
	// Purger implementations are expected to restrict deletion to
	// terminal states (Completed or Dead). Supplying a non-terminal
	// status such as Pending or Processing results in ErrBadStatus.
	ErrBadStatus = errors.New("bad job status")
)

// Purger provides a mechanism for permanently removing terminal jobs
// from storage. This is a supplemental retention-management feature
// (spec.md is silent on deletion; the DLQ table itself is never purged
// by the core, only the job rows that have already reached a terminal
// state may be).
//
// Purger does not participate in normal job processing and must not
// modify non-terminal jobs.
type Purger interface {

	// PurgeBefore deletes jobs matching status whose UpdatedAt is <=
	// before. If status is job.Unknown, both Completed and Dead jobs are
	// eligible. If before is nil, no time filter is applied. Returns the
	// number of deleted rows. Returns ErrBadStatus if status names a
	// non-terminal state.
	PurgeBefore(ctx context.Context, status job.Status, before *time.Time) (int64, error)
}
