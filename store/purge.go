package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
)

// Purger implements shellq.Purger using a bun-backed SQL store.
//
// Purger permanently removes terminal jobs from storage. It is intended
// for retention management and administrative cleanup and does not
// participate in lease or state-transition logic.
type Purger struct {
	db *bun.DB
}

// NewPurger creates a new bun-backed Purger.
func NewPurger(db *bun.DB) *Purger {
	return &Purger{db: db}
}

// PurgeBefore deletes jobs matching status whose UpdatedAt is <= before.
//
// Only terminal states are allowed: job.Completed or job.Dead. If status
// is job.Unknown (zero value), both are eligible. If status names a
// non-terminal state, shellq.ErrBadStatus is returned. If before is nil,
// no time filter is applied. Returns the number of deleted rows.
func (p *Purger) PurgeBefore(ctx context.Context, status job.Status, before *time.Time) (int64, error) {
	if status != job.Unknown && status != job.Completed && status != job.Dead {
		return 0, shellq.ErrBadStatus
	}
	query := p.db.NewDelete().Model((*jobModel)(nil))
	if status != job.Unknown {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN (?, ?)", job.Completed, job.Dead)
	}
	if before != nil {
		query = query.Where("updated_at <= ?", before)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}
