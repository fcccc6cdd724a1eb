package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
	"github.com/shellq/shellq/store"
)

func TestClaimAndMarkCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	if err := enqueuer.Enqueue(ctx, &job.Job{ID: "e1", Command: "exit 0"}); err != nil {
		t.Fatal(err)
	}

	claimed, err := claimer.Claim(ctx, 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil {
		t.Fatal("expected a claimed job")
	}
	if claimed.Status != job.Processing {
		t.Fatalf("expected Processing, got %v", claimed.Status)
	}
	if claimed.LockedBy == nil || *claimed.LockedBy != 1 {
		t.Fatal("expected lease held by worker 1")
	}

	// a second claimer must not see the same row
	nothing, err := claimer.Claim(ctx, 2, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if nothing != nil {
		t.Fatal("expected no runnable job while e1 is leased")
	}

	if err := claimer.MarkCompleted(ctx, "e1", 1); err != nil {
		t.Fatal(err)
	}

	got, err := observer.Get(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.Completed {
		t.Fatalf("expected Completed, got %v", got.Status)
	}
	if got.LockedBy != nil || got.LockedUntil != nil {
		t.Fatal("expected lease cleared")
	}
}

func TestMarkCompletedWrongWorkerFails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e1", Command: "exit 0"})
	if _, err := claimer.Claim(ctx, 1, time.Second); err != nil {
		t.Fatal(err)
	}

	err := claimer.MarkCompleted(ctx, "e1", 2)
	if !errors.Is(err, shellq.ErrCompleteFailed) {
		t.Fatalf("expected ErrCompleteFailed, got %v", err)
	}
}

func TestScheduleRetry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e2", Command: "exit 1", MaxRetries: 3})
	if _, err := claimer.Claim(ctx, 1, time.Second); err != nil {
		t.Fatal(err)
	}

	retryAt := time.Now().Add(2 * time.Second)
	if err := claimer.ScheduleRetry(ctx, "e2", 1, 1, retryAt, "exit_code=1"); err != nil {
		t.Fatal(err)
	}

	got, err := observer.Get(ctx, "e2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.Pending {
		t.Fatalf("expected Pending, got %v", got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", got.Attempts)
	}
	if got.RetryAt == nil {
		t.Fatal("expected retry_at to be set")
	}
	if delta := got.RetryAt.Sub(retryAt); delta < -time.Second || delta > time.Second {
		t.Fatalf("unexpected retry_at: %v (wanted ~%v)", got.RetryAt, retryAt)
	}
	if got.Error == nil || *got.Error != "exit_code=1" {
		t.Fatalf("expected error snippet recorded, got %v", got.Error)
	}

	// not yet eligible: retry_at is in the future
	claimedAgain, err := claimer.Claim(ctx, 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if claimedAgain != nil {
		t.Fatal("expected job to stay ineligible until retry_at passes")
	}
}

func TestMoveToDLQ(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)
	dlq := store.NewDeadLetters(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e3", Command: "exit 1", MaxRetries: 2})
	if _, err := claimer.Claim(ctx, 1, time.Second); err != nil {
		t.Fatal(err)
	}

	if err := claimer.MoveToDLQ(ctx, "e3", 1, 3, "exit_code=1 timed_out=false"); err != nil {
		t.Fatal(err)
	}

	got, err := observer.Get(ctx, "e3")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.Dead {
		t.Fatalf("expected Dead, got %v", got.Status)
	}
	if got.Attempts != 3 {
		t.Fatalf("expected attempts=3, got %d", got.Attempts)
	}

	entries, err := dlq.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].JobID != "e3" {
		t.Fatalf("expected one dlq entry for e3, got %+v", entries)
	}
}

func TestClaimPriorityOvertakesFIFO(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)

	for _, j := range []*job.Job{
		{ID: "a", Command: "exit 0", Priority: 0},
		{ID: "b", Command: "exit 0", Priority: 0},
		{ID: "u", Command: "exit 0", Priority: 10},
	} {
		if err := enqueuer.Enqueue(ctx, j); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	var order []string
	for i := 0; i < 3; i++ {
		claimed, err := claimer.Claim(ctx, 1, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if claimed == nil {
			t.Fatal("expected a claimable job")
		}
		order = append(order, claimed.ID)
	}

	if len(order) != 3 || order[0] != "u" || order[1] != "a" || order[2] != "b" {
		t.Fatalf("unexpected claim order: %v", order)
	}
}

func TestReclaimExpiredLeases(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e5", Command: "sleep 60"})
	claimed, err := claimer.Claim(ctx, 1, 30*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil {
		t.Fatal("expected claim")
	}

	time.Sleep(60 * time.Millisecond)

	n, err := claimer.ReclaimExpiredLeases(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reclaimed lease, got %d", n)
	}

	got, err := observer.Get(ctx, "e5")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.Pending {
		t.Fatalf("expected Pending after reclaim, got %v", got.Status)
	}
	if got.Attempts != 0 {
		t.Fatalf("reclaim must not increment attempts, got %d", got.Attempts)
	}
	if got.LockedBy != nil || got.LockedUntil != nil {
		t.Fatal("expected lease cleared after reclaim")
	}
}

func TestExtendLease(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e1", Command: "sleep 1"})
	claimed, err := claimer.Claim(ctx, 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	old := *claimed.LockedUntil
	if err := claimer.ExtendLease(ctx, claimed, 1, 5*time.Second); err != nil {
		t.Fatal(err)
	}
	if !claimed.LockedUntil.After(old) {
		t.Fatal("lease was not extended")
	}
}

func TestPromoteReadyRetries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e6", Command: "exit 1", MaxRetries: 3})
	if _, err := claimer.Claim(ctx, 1, time.Second); err != nil {
		t.Fatal(err)
	}
	retryAt := time.Now().Add(-time.Second) // already elapsed
	if err := claimer.ScheduleRetry(ctx, "e6", 1, 1, retryAt, "exit_code=1"); err != nil {
		t.Fatal(err)
	}

	before, err := observer.Get(ctx, "e6")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)
	n, err := claimer.PromoteReadyRetries(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row promoted, got %d", n)
	}

	after, err := observer.Get(ctx, "e6")
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != job.Pending {
		t.Fatalf("expected status unchanged (Pending), got %v", after.Status)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatal("expected updated_at to be bumped")
	}

	// a job with no retry_at set is left alone
	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e7", Command: "exit 1"})
	n, err = claimer.PromoteReadyRetries(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	// e6 is still itself runnable (retry_at elapsed) and matches again on
	// every sweep, since PromoteReadyRetries performs no state transition
	// that would exclude it from future passes; e7 never matches.
	if n != 1 {
		t.Fatalf("expected only e6 to match, got %d", n)
	}
}

func TestExtendLeaseWrongWorkerFails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)

	_ = enqueuer.Enqueue(ctx, &job.Job{ID: "e1", Command: "sleep 1"})
	claimed, err := claimer.Claim(ctx, 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	err = claimer.ExtendLease(ctx, claimed, 2, 5*time.Second)
	if !errors.Is(err, shellq.ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
}
