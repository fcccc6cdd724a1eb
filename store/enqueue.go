package store

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
)

// Enqueuer implements shellq.Enqueuer using a bun-backed SQL store.
type Enqueuer struct {
	db *bun.DB
}

// NewEnqueuer creates a new Enqueuer.
//
// The provided *bun.DB must be properly configured and connected.
// Schema initialization must be completed before use.
func NewEnqueuer(db *bun.DB) *Enqueuer {
	return &Enqueuer{db: db}
}

// Enqueue inserts j in the Pending state. If a job with the same ID
// already exists, shellq.ErrDuplicateID is returned and the existing row
// is left untouched.
func (e *Enqueuer) Enqueue(ctx context.Context, j *job.Job) error {
	model := fromJob(j)
	_, err := e.db.NewInsert().Model(model).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return shellq.ErrDuplicateID
		}
		return err
	}
	return nil
}

// isUniqueViolation reports whether err represents a primary key or
// unique constraint violation reported by the sqlite driver.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}
