package job

import "time"

// DLQEntry is the canonical index of a job that exceeded its retry
// budget and was moved to the dead-letter queue.
//
// The job row itself is retained (Status == Dead) for inspection; the
// DLQEntry is created once, at the moment of the move, and is never
// deleted by the core. A manual retry-from-DLQ operation removes the
// entry and flips the job back to Pending, but creates no new entry.
type DLQEntry struct {
	JobID   string
	Reason  string
	MovedAt time.Time
}
