package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/shellq/shellq/job"
)

type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	ID      string `bun:"id,pk"`
	Command string `bun:"command,notnull"`

	Priority      int `bun:"priority,notnull,default:0"`
	PriorityClass int `bun:"priority_class,notnull,default:1"`
	Attempts      uint32 `bun:"attempts,notnull,default:0"`
	MaxRetries    uint32 `bun:"max_retries,notnull,default:0"`

	Status job.Status `bun:"status,notnull,default:1"`

	LockedBy    *int       `bun:"locked_by,nullzero"`
	LockedUntil *time.Time `bun:"locked_until,nullzero"`
	RetryAt     *time.Time `bun:"retry_at,nullzero"`
	RunAt       *time.Time `bun:"run_at,nullzero"`

	Error *string `bun:"error,nullzero"`

	Metadata map[string]string `bun:"metadata,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (jm *jobModel) toJob() *job.Job {
	return &job.Job{
		ID:          jm.ID,
		Command:     jm.Command,
		Priority:    jm.Priority,
		Attempts:    jm.Attempts,
		MaxRetries:  jm.MaxRetries,
		Status:      jm.Status,
		LockedBy:    jm.LockedBy,
		LockedUntil: jm.LockedUntil,
		RetryAt:     jm.RetryAt,
		RunAt:       jm.RunAt,
		Error:       jm.Error,
		Metadata:    jm.Metadata,
		CreatedAt:   jm.CreatedAt,
		UpdatedAt:   jm.UpdatedAt,
	}
}

func fromJob(j *job.Job) *jobModel {
	now := time.Now()
	priorityClass := 1
	if j.Priority > 0 {
		priorityClass = 0
	}
	return &jobModel{
		ID:            j.ID,
		Command:       j.Command,
		Priority:      j.Priority,
		PriorityClass: priorityClass,
		MaxRetries:    j.MaxRetries,
		Status:        job.Pending,
		RunAt:         j.RunAt,
		Metadata:      j.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// dlqModel is the canonical index of jobs that exceeded their retry
// budget, per spec.md §3 ("DLQ record").
type dlqModel struct {
	bun.BaseModel `bun:"table:dead_letters"`

	JobID   string    `bun:"job_id,pk"`
	Reason  string    `bun:"reason,notnull"`
	MovedAt time.Time `bun:"moved_at,nullzero,notnull,default:current_timestamp"`
}

func (dm *dlqModel) toEntry() *job.DLQEntry {
	return &job.DLQEntry{
		JobID:   dm.JobID,
		Reason:  dm.Reason,
		MovedAt: dm.MovedAt,
	}
}

// configModel backs the durable string-keyed runtime configuration
// table described by spec.md §3.
type configModel struct {
	bun.BaseModel `bun:"table:config"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}
