package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shellq/shellq/job"
	"github.com/shellq/shellq/store"
)

var (
	enqueueID         string
	enqueueMaxRetries uint32
	enqueuePriority   int
	enqueueRunAt      string
	enqueueMeta       []string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <command>",
	Short: "Insert a new job into the queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueID, "id", "", "job id (auto-generated if omitted)")
	enqueueCmd.Flags().Uint32Var(&enqueueMaxRetries, "max-retries", 3, "maximum number of additional attempts after the first failure")
	enqueueCmd.Flags().IntVar(&enqueuePriority, "priority", 0, "priority in [0,10]; 0 means FIFO-class")
	enqueueCmd.Flags().StringVar(&enqueueRunAt, "run-at", "", "RFC3339 timestamp before which the job is not eligible for its first execution")
	enqueueCmd.Flags().StringArrayVar(&enqueueMeta, "meta", nil, "operator-supplied k=v metadata tag, may be repeated")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	if enqueuePriority < 0 || enqueuePriority > 10 {
		return fmt.Errorf("priority must be in [0,10], got %d", enqueuePriority)
	}

	id := enqueueID
	if id == "" {
		id = uuid.NewString()
	}

	var runAt *time.Time
	if enqueueRunAt != "" {
		t, err := time.Parse(time.RFC3339, enqueueRunAt)
		if err != nil {
			return fmt.Errorf("invalid --run-at: %w", err)
		}
		runAt = &t
	}

	meta, err := parseMeta(enqueueMeta)
	if err != nil {
		return err
	}

	j := &job.Job{
		ID:         id,
		Command:    args[0],
		Priority:   enqueuePriority,
		MaxRetries: enqueueMaxRetries,
		RunAt:      runAt,
		Metadata:   meta,
	}

	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewEnqueuer(db).Enqueue(ctx, j); err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --meta %q, expected k=v", p)
		}
		out[k] = v
	}
	return out, nil
}
