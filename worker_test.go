package shellq_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
	"github.com/shellq/shellq/process"
	"github.com/shellq/shellq/store"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1) // important for sqlite
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	ctx := context.Background()
	if err := store.InitDB(ctx, db); err != nil {
		t.Fatal(err)
	}
	return db
}

func waitForStatus(t *testing.T, observer *store.Observer, id string, want job.Status, timeout time.Duration) *job.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got, err := observer.Get(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if got != nil && got.Status == want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %v within %v", id, want, timeout)
	return nil
}

func TestWorkerSuccessPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	if err := enqueuer.Enqueue(ctx, &job.Job{ID: "e1", Command: "exit 0"}); err != nil {
		t.Fatal(err)
	}

	w := shellq.NewWorker(claimer, process.NewShellExecutor(), shellq.WorkerConfig{
		ID:           1,
		PollInterval: 20 * time.Millisecond,
		LeaseSeconds: 5 * time.Second,
		JobTimeout:   time.Second,
		BackoffBase:  2,
		BackoffCap:   300,
	}, slog.Default())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(runCtx)

	got := waitForStatus(t, observer, "e1", job.Completed, 5*time.Second)
	if got.Attempts != 0 {
		t.Fatalf("expected 0 attempts on first-try success, got %d", got.Attempts)
	}
}

func TestWorkerRetryThenSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	// fails on the first two executions, succeeds on the third, using a
	// file as the fail-count sentinel so it survives across executions.
	script := `
c=$(cat /tmp/shellq-e2-count 2>/dev/null || echo 0)
c=$((c+1))
echo $c > /tmp/shellq-e2-count
if [ $c -lt 3 ]; then exit 1; fi
rm -f /tmp/shellq-e2-count
exit 0
`
	if err := enqueuer.Enqueue(ctx, &job.Job{ID: "e2", Command: script, MaxRetries: 3}); err != nil {
		t.Fatal(err)
	}

	w := shellq.NewWorker(claimer, process.NewShellExecutor(), shellq.WorkerConfig{
		ID:           1,
		PollInterval: 10 * time.Millisecond,
		LeaseSeconds: 5 * time.Second,
		JobTimeout:   time.Second,
		BackoffBase:  1, // constant 1s delay keeps the test fast
		BackoffCap:   10,
	}, slog.Default())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(runCtx)

	got := waitForStatus(t, observer, "e2", job.Completed, 10*time.Second)
	if got.Attempts != 2 {
		t.Fatalf("expected 2 recorded attempts before success, got %d", got.Attempts)
	}
}

func TestWorkerDLQAfterExhaustingRetries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)
	dlq := store.NewDeadLetters(db)

	if err := enqueuer.Enqueue(ctx, &job.Job{ID: "e3", Command: "exit 1", MaxRetries: 2}); err != nil {
		t.Fatal(err)
	}

	w := shellq.NewWorker(claimer, process.NewShellExecutor(), shellq.WorkerConfig{
		ID:           1,
		PollInterval: 10 * time.Millisecond,
		LeaseSeconds: 5 * time.Second,
		JobTimeout:   time.Second,
		BackoffBase:  1,
		BackoffCap:   1,
	}, slog.Default())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(runCtx)

	got := waitForStatus(t, observer, "e3", job.Dead, 10*time.Second)
	if got.Attempts != 3 {
		t.Fatalf("expected exactly 3 attempts (initial + 2 retries), got %d", got.Attempts)
	}

	entries, err := dlq.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].JobID != "e3" {
		t.Fatalf("expected one dlq entry for e3, got %+v", entries)
	}
}

func TestWorkerGracefulShutdownFinishesInFlightJob(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	enqueuer := store.NewEnqueuer(db)
	claimer := store.NewClaimer(db)
	observer := store.NewObserver(db)

	if err := enqueuer.Enqueue(ctx, &job.Job{ID: "e6", Command: "sleep 1; exit 0"}); err != nil {
		t.Fatal(err)
	}

	w := shellq.NewWorker(claimer, process.NewShellExecutor(), shellq.WorkerConfig{
		ID:           1,
		PollInterval: 10 * time.Millisecond,
		LeaseSeconds: 5 * time.Second,
		JobTimeout:   5 * time.Second,
		BackoffBase:  2,
		BackoffCap:   300,
	}, slog.Default())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.Run(runCtx)
		close(done)
	}()

	// wait until the job is claimed, then request shutdown mid-execution
	waitForStatus(t, observer, "e6", job.Processing, 2*time.Second)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not shut down")
	}

	got, err := observer.Get(context.Background(), "e6")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.Completed {
		t.Fatalf("expected worker to finish in-flight job before exiting, got %v", got.Status)
	}
}
