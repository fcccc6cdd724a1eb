package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/process"
	"github.com/shellq/shellq/store"
)

var (
	workerCount      int
	workerRunID      int
	workerSweepEvery int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage worker processes",
}

var workerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Spawn worker processes under a supervisor",
	Args:  cobra.NoArgs,
	RunE:  runWorkerStart,
}

var workerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal every worker process recorded in the PID file",
	Args:  cobra.NoArgs,
	RunE:  runWorkerStop,
}

// workerRunCmd is the re-exec target invoked by the Supervisor for each
// child process; it is not generally meant to be run by hand, but
// nothing prevents an operator from using it directly for a single
// foreground worker.
var workerRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run a single worker loop in the foreground",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE:   runWorkerRun,
}

func init() {
	workerStartCmd.Flags().IntVar(&workerCount, "count", 1, "number of worker processes to spawn")
	workerRunCmd.Flags().IntVar(&workerRunID, "id", os.Getpid(), "worker identifier (defaults to the OS process id)")
	workerRunCmd.Flags().IntVar(&workerSweepEvery, "sweep-every", 10, "run the scheduler sweep once every N loop iterations")

	workerCmd.AddCommand(workerStartCmd)
	workerCmd.AddCommand(workerStopCmd)
	workerCmd.AddCommand(workerRunCmd)
}

func runWorkerStart(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	purgeAfter, err := typedConfig(db).PurgeAfterSeconds(ctx)
	if err != nil {
		return err
	}

	sup := shellq.NewSupervisor(shellq.SupervisorConfig{
		Count:      workerCount,
		WorkerArgs: []string{"worker", "run", "--db", dbPath(), "--log-file", logFilePath(), "--pid-file", pidFilePath(), "--log-level", logLevel()},
		PIDFile:    pidFilePath(),

		Purger:     store.NewPurger(db),
		PurgeAfter: time.Duration(purgeAfter) * time.Second,
	}, logger)

	return sup.Run(ctx)
}

func runWorkerStop(cmd *cobra.Command, args []string) error {
	pids, err := shellq.ReadPIDFile(pidFilePath())
	if err != nil {
		return fmt.Errorf("read pid file: %w", err)
	}
	if len(pids) == 0 {
		fmt.Println("no workers running")
		return nil
	}
	if err := shellq.SignalPIDs(pids, syscall.SIGTERM); err != nil {
		return err
	}
	fmt.Printf("sent SIGTERM to %d worker(s)\n", len(pids))
	return nil
}

func runWorkerRun(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	claimer := store.NewClaimer(db)
	typed := typedConfig(db)

	lease, err := typed.LockLeaseSeconds(ctx)
	if err != nil {
		return err
	}
	timeout, err := typed.JobTimeoutSeconds(ctx)
	if err != nil {
		return err
	}
	base, err := typed.BackoffBase(ctx)
	if err != nil {
		return err
	}
	backoffCap, err := typed.MaxBackoffSeconds(ctx)
	if err != nil {
		return err
	}

	// A lease shorter than the job timeout is safe because the Worker
	// renews its lease at the half-lease mark, but it is still worth
	// flagging to an operator who has not set either explicitly.
	if lease < timeout/2 {
		logger.Warn("lock_lease_seconds is less than half of job_timeout_seconds; lease renewal may not land in time",
			slog.Uint64("lock_lease_seconds", lease), slog.Uint64("job_timeout_seconds", timeout))
	}

	w := shellq.NewWorker(claimer, process.NewShellExecutor(), shellq.WorkerConfig{
		ID:           workerRunID,
		PollInterval: time.Second,
		LeaseSeconds: time.Duration(lease) * time.Second,
		JobTimeout:   time.Duration(timeout) * time.Second,
		SweepEvery:   workerSweepEvery,
		BackoffBase:  base,
		BackoffCap:   backoffCap,
	}, logger)

	logger.Info("worker starting", "id", workerRunID)
	return w.Run(ctx)
}
