package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/shellq/shellq/job"
)

// Observer implements shellq.Observer using a bun-backed SQL store.
//
// Observer provides read-only access to job state. It does not
// participate in lease handling or state transitions and must not
// modify job records.
type Observer struct {
	db *bun.DB
}

// NewObserver creates a new bun-backed Observer.
func NewObserver(db *bun.DB) *Observer {
	return &Observer{db: db}
}

// Get retrieves a job by its identifier. If no job with id exists, Get
// returns (nil, nil).
func (o *Observer) Get(ctx context.Context, id string) (*job.Job, error) {
	var ret jobModel
	err := o.db.NewSelect().
		Model(&ret).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ret.toJob(), nil
}

// List returns up to limit jobs filtered by status.
//
// If status is job.Unknown (zero value), no status filter is applied.
// If limit is zero or negative, no LIMIT clause is added.
func (o *Observer) List(ctx context.Context, status job.Status, limit int) ([]*job.Job, error) {
	var rows []*jobModel
	query := o.db.NewSelect().Model(&rows)
	if status != job.Unknown {
		query = query.Where("status = ?", status)
	}
	query = query.Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	ret := make([]*job.Job, len(rows))
	for i, r := range rows {
		ret[i] = r.toJob()
	}
	return ret, nil
}

// Counts returns the number of jobs currently in each status, used by
// the status CLI command.
func (o *Observer) Counts(ctx context.Context) (map[job.Status]int64, error) {
	var rows []struct {
		Status job.Status `bun:"status"`
		Count  int64      `bun:"count"`
	}
	err := o.db.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("status").
		ColumnExpr("count(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	ret := make(map[job.Status]int64, len(rows))
	for _, r := range rows {
		ret[r.Status] = r.Count
	}
	return ret, nil
}
