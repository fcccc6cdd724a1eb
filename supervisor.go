package shellq

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/shellq/shellq/job"
)

// SupervisorConfig configures a Supervisor.
//
// Count is the number of worker OS processes to spawn (spec.md §4.6/§5).
//
// WorkerArgs are the arguments passed to a re-exec of the current binary
// to start one worker process, e.g. []string{"worker", "run"}. No --id
// is appended: each worker process defaults its own --id to its OS
// process id.
//
// PIDFile, if non-empty, receives one worker PID per line on Run and is
// removed when every worker has exited. A separate "stop" CLI invocation
// reads this file (via ReadPIDFile) and signals the recorded PIDs
// directly, per spec.md §4.6 — it does not need the Supervisor process
// itself to still be alive.
//
// Purger and PurgeAfter configure the retention housekeeping task that
// runs inside the Supervisor process rather than inside each job Worker
// (spec.md §4.1: purge is orthogonal to the Scheduler Sweep). If
// PurgeAfter is zero or Purger is nil, no purging runs. PurgeInterval
// defaults to one minute when left zero.
type SupervisorConfig struct {
	Count      int
	WorkerArgs []string
	PIDFile    string

	Purger        Purger
	PurgeAfter    time.Duration
	PurgeInterval time.Duration
}

// Supervisor spawns cfg.Count worker processes, each a fresh execution
// of the current binary re-invoked with WorkerArgs, per spec.md §5's
// multi-process worker model. It does not restart a worker that exits
// on its own: per spec.md §4.6, a crashed worker's in-flight job is
// recovered by the lease-expiry sweep running inside every surviving
// worker, not by respawning.
type Supervisor struct {
	cfg SupervisorConfig
	log *slog.Logger

	procs *xsync.MapOf[int, *os.Process]
}

// NewSupervisor constructs a Supervisor. Call Run to spawn workers and
// block until shutdown.
func NewSupervisor(cfg SupervisorConfig, log *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:   cfg,
		log:   log,
		procs: xsync.NewMapOf[int, *os.Process](),
	}
}

// Run spawns cfg.Count worker processes and blocks until every one has
// exited, or until ctx is canceled or a SIGTERM/SIGINT arrives — in
// which case Run relays SIGTERM to every live worker and then waits.
func (s *Supervisor) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Count; i++ {
		cmd, err := s.spawn(i)
		if err != nil {
			s.log.Error("failed to spawn worker process", "slot", i, "err", err)
			continue
		}
		pid := cmd.Process.Pid
		wg.Add(1)
		go func(pid int, cmd *exec.Cmd) {
			defer wg.Done()
			err := cmd.Wait()
			s.procs.Delete(pid)
			if err != nil {
				s.log.Warn("worker process exited", "pid", pid, "err", err)
			} else {
				s.log.Info("worker process exited", "pid", pid)
			}
		}(pid, cmd)
	}

	if err := s.writePIDFile(); err != nil {
		s.log.Error("failed to write pid file", "err", err)
	}
	defer s.removePIDFile()

	purgeWorker := s.startPurgeWorker(ctx)
	if purgeWorker != nil {
		defer purgeWorker.Stop(5 * time.Second)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		return nil
	case <-sigCh:
		s.log.Info("supervisor received shutdown signal")
	case <-ctx.Done():
	}

	s.relay(syscall.SIGTERM)
	<-allDone
	return nil
}

// startPurgeWorker starts the retention housekeeping task if the
// Supervisor is configured for it, returning nil otherwise.
func (s *Supervisor) startPurgeWorker(ctx context.Context) *PurgeWorker {
	if s.cfg.Purger == nil || s.cfg.PurgeAfter <= 0 {
		return nil
	}
	interval := s.cfg.PurgeInterval
	if interval <= 0 {
		interval = time.Minute
	}
	pw := NewPurgeWorker(s.cfg.Purger, &PurgeConfig{
		Status:   job.Unknown,
		Interval: interval,
		Before:   true,
		Delta:    s.cfg.PurgeAfter,
	}, s.log)
	if err := pw.Start(ctx); err != nil {
		s.log.Error("failed to start purge worker", "err", err)
		return nil
	}
	s.log.Info("purge worker started", "interval", interval, "purge_after", s.cfg.PurgeAfter)
	return pw
}

// spawn starts one worker process. WorkerArgs carries no --id: the
// worker CLI command defaults --id to its own os.Getpid(), so each
// spawned process's worker identifier is its OS process id, per
// spec.md §4.5. i is only a spawn-order label for logging.
func (s *Supervisor) spawn(i int) (*exec.Cmd, error) {
	cmd := exec.Command(os.Args[0], s.cfg.WorkerArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = workerSysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	pid := cmd.Process.Pid
	s.procs.Store(pid, cmd.Process)
	s.log.Info("spawned worker process", "slot", i, "pid", pid)
	return cmd, nil
}

// relay forwards sig to every currently tracked child process.
func (s *Supervisor) relay(sig syscall.Signal) {
	s.procs.Range(func(pid int, proc *os.Process) bool {
		if err := proc.Signal(sig); err != nil {
			s.log.Warn("failed to signal worker process", "pid", pid, "err", err)
		}
		return true
	})
}

func (s *Supervisor) writePIDFile() error {
	if s.cfg.PIDFile == "" {
		return nil
	}
	var b strings.Builder
	s.procs.Range(func(pid int, proc *os.Process) bool {
		fmt.Fprintln(&b, proc.Pid)
		return true
	})
	return os.WriteFile(s.cfg.PIDFile, []byte(b.String()), 0o644)
}

func (s *Supervisor) removePIDFile() {
	if s.cfg.PIDFile == "" {
		return
	}
	_ = os.Remove(s.cfg.PIDFile)
}

// ReadPIDFile parses the newline-separated PID list written by a
// Supervisor. It is used by the "worker stop" CLI command, which may run
// after the Supervisor process that wrote the file has exited.
func ReadPIDFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pids []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("pid file %s: %w", path, err)
		}
		pids = append(pids, pid)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pids, nil
}

// SignalPIDs sends sig to each pid, collecting (not stopping on) errors
// from individual processes that may have already exited.
func SignalPIDs(pids []int, sig syscall.Signal) error {
	var errs []error
	for _, pid := range pids {
		proc, err := os.FindProcess(pid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := proc.Signal(sig); err != nil {
			errs = append(errs, fmt.Errorf("pid %d: %w", pid, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("signal errors: %v", errs)
	}
	return nil
}
