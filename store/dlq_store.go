package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
)

// DeadLetters implements shellq.DeadLetters using a bun-backed SQL
// store.
type DeadLetters struct {
	db *bun.DB
}

// NewDeadLetters creates a new bun-backed DeadLetters.
func NewDeadLetters(db *bun.DB) *DeadLetters {
	return &DeadLetters{db: db}
}

// List returns up to limit DLQ entries, most recently moved first.
func (d *DeadLetters) List(ctx context.Context, limit int) ([]*job.DLQEntry, error) {
	var rows []*dlqModel
	query := d.db.NewSelect().Model(&rows).Order("moved_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	ret := make([]*job.DLQEntry, len(rows))
	for i, r := range rows {
		ret[i] = r.toEntry()
	}
	return ret, nil
}

// Retry resurrects a dead job: its DLQ entry is removed and the job is
// flipped back to Pending with Attempts reset to 0, Error and RetryAt
// cleared.
func (d *DeadLetters) Retry(ctx context.Context, id string) error {
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var model jobModel
		err := tx.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shellq.ErrJobLost
			}
			return err
		}
		if model.Status != job.Dead {
			return shellq.ErrBadStatus
		}

		now := time.Now()
		_, err = tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("status = ?", job.Pending).
			Set("attempts = 0").
			Set("error = NULL").
			Set("retry_at = NULL").
			Set("locked_by = NULL").
			Set("locked_until = NULL").
			Set("updated_at = ?", now).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*dlqModel)(nil)).
			Where("job_id = ?", id).
			Exec(ctx)
		return err
	})
}
