package shellq_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
)

type mockPurger struct {
	count atomic.Int64
}

func (m *mockPurger) PurgeBefore(ctx context.Context, status job.Status, before *time.Time) (int64, error) {
	m.count.Add(1)
	return 1, nil
}

func TestPurgeWorkerBasic(t *testing.T) {
	purger := &mockPurger{}
	logger := slog.Default()

	cfg := &shellq.PurgeConfig{
		Status:   job.Completed,
		Interval: 50 * time.Millisecond,
		Before:   false,
	}

	w := shellq.NewPurgeWorker(purger, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)

	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}

	if purger.count.Load() == 0 {
		t.Fatal("expected purger to run at least once")
	}
}

func TestPurgeWorkerLifecycleErrors(t *testing.T) {
	purger := &mockPurger{}
	logger := slog.Default()

	cfg := &shellq.PurgeConfig{
		Status:   job.Completed,
		Interval: time.Second,
	}

	w := shellq.NewPurgeWorker(purger, cfg, logger)

	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := w.Start(ctx); err == nil {
		t.Fatal("expected ErrDoubleStarted")
	}

	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}

	if err := w.Stop(time.Second); err == nil {
		t.Fatal("expected ErrDoubleStopped")
	}
}
