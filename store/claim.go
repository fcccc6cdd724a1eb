package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
)

// Claimer implements shellq.Claimer using a bun-backed SQL store.
//
// Claimer performs atomic state transitions using UPDATE ... RETURNING
// semantics (adapted from the teacher's Pull/ExtendLock/Complete/
// Return/Kill quintet) to ensure safe concurrent access across multiple
// worker processes sharing one database.
//
// The implementation assumes durable writes and the transactional
// guarantees provided by the underlying database; callers are expected
// to have run InitDB first.
type Claimer struct {
	db *bun.DB
}

// NewClaimer creates a new bun-backed Claimer.
func NewClaimer(db *bun.DB) *Claimer {
	return &Claimer{db: db}
}

// Claim selects the single highest-ranked runnable job and atomically
// transitions it to Processing, per spec.md §4.1.
//
// Ordering: priority_class ascending (priority-class wins over
// FIFO-class), then priority descending, then created_at ascending
// (FIFO tie-break). A job is a candidate only if Status == Pending and
// both RetryAt and RunAt (if set) are not in the future — invariant I3.
//
// Claim relies on a single UPDATE ... WHERE id IN (subquery) statement
// with RETURNING, so the write lock is acquired before the eligible row
// is read, never upgraded afterward: two concurrent Claim calls cannot
// observe and then race on the same row.
//
// Attempts is not incremented here; it is only incremented on a
// recorded failure (ScheduleRetry/MoveToDLQ).
func (c *Claimer) Claim(ctx context.Context, workerID int, lease time.Duration) (*job.Job, error) {
	now := time.Now()
	lockedUntil := now.Add(lease)

	subQuery := c.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		Where("status = ?", job.Pending).
		Where("retry_at IS NULL OR retry_at <= ?", now).
		Where("run_at IS NULL OR run_at <= ?", now).
		Order("priority_class ASC", "priority DESC", "created_at ASC").
		Limit(1)

	var rows []*jobModel
	err := c.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Processing).
		Set("locked_by = ?", workerID).
		Set("locked_until = ?", lockedUntil).
		Set("updated_at = ?", now).
		Where("id IN (?)", subQuery).
		Returning("*").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toJob(), nil
}

// ExtendLease extends the lease of a job currently Processing and owned
// by workerID. If the job is no longer Processing or owned by workerID,
// shellq.ErrLockLost is returned.
func (c *Claimer) ExtendLease(ctx context.Context, j *job.Job, workerID int, lease time.Duration) error {
	now := time.Now()
	newLock := now.Add(lease)
	res, err := c.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("locked_until = ?", newLock).
		Set("updated_at = ?", now).
		Where("id = ?", j.ID).
		Where("status = ?", job.Processing).
		Where("locked_by = ?", workerID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return shellq.ErrLockLost
	}
	j.UpdatedAt = now
	j.LockedUntil = &newLock
	return nil
}

// MarkCompleted transitions a job from Processing to Completed.
// Requires LockedBy == workerID; fails with shellq.ErrCompleteFailed
// otherwise.
func (c *Claimer) MarkCompleted(ctx context.Context, id string, workerID int) error {
	now := time.Now()
	res, err := c.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Completed).
		Set("locked_by = NULL").
		Set("locked_until = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", job.Processing).
		Where("locked_by = ?", workerID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return shellq.ErrCompleteFailed
	}
	return nil
}

// ScheduleRetry transitions a job from Processing back to Pending,
// recording the post-increment attempt count, RetryAt, and errMsg.
// Requires LockedBy == workerID; fails with shellq.ErrLockLost
// otherwise.
func (c *Claimer) ScheduleRetry(ctx context.Context, id string, workerID int, attempts uint32, retryAt time.Time, errMsg string) error {
	now := time.Now()
	res, err := c.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Pending).
		Set("attempts = ?", attempts).
		Set("retry_at = ?", retryAt).
		Set("error = ?", errMsg).
		Set("locked_by = NULL").
		Set("locked_until = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", job.Processing).
		Where("locked_by = ?", workerID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return shellq.ErrLockLost
	}
	return nil
}

// MoveToDLQ transitions a job to Dead and inserts a DLQ entry with
// reason, inside a single transaction. Requires LockedBy == workerID;
// fails with shellq.ErrLockLost otherwise.
func (c *Claimer) MoveToDLQ(ctx context.Context, id string, workerID int, attempts uint32, reason string) error {
	now := time.Now()
	return c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("status = ?", job.Dead).
			Set("attempts = ?", attempts).
			Set("error = ?", reason).
			Set("locked_by = NULL").
			Set("locked_until = NULL").
			Set("updated_at = ?", now).
			Where("id = ?", id).
			Where("status = ?", job.Processing).
			Where("locked_by = ?", workerID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if !isAffected(res) {
			return shellq.ErrLockLost
		}
		_, err = tx.NewInsert().
			Model(&dlqModel{JobID: id, Reason: reason, MovedAt: now}).
			Exec(ctx)
		return err
	})
}

// ReclaimExpiredLeases clears the lease and returns to Pending every job
// whose Status is Processing and whose LockedUntil has passed. Attempts
// is not incremented and RetryAt is left untouched: it is null for a
// job on its first execution, and for a retried job it still holds the
// already-elapsed time it was claimed after (Claim does not clear it),
// so the reclaimed job is immediately eligible either way. Returns the
// number of jobs reclaimed.
func (c *Claimer) ReclaimExpiredLeases(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Pending).
		Set("locked_by = NULL").
		Set("locked_until = NULL").
		Set("updated_at = ?", now).
		Where("status = ?", job.Processing).
		Where("locked_until < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}

// PromoteReadyRetries bumps UpdatedAt on every Pending job whose RetryAt
// has elapsed. Claim already treats such a job as runnable on its own
// (retry_at <= now is part of its candidate filter), so this performs no
// state transition; it exists so the Scheduler Sweep has a named,
// observable operation for the retry side, matching ReclaimExpiredLeases
// on the lease side. Returns the number of rows touched.
func (c *Claimer) PromoteReadyRetries(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("updated_at = ?", now).
		Where("status = ?", job.Pending).
		Where("retry_at IS NOT NULL").
		Where("retry_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}
