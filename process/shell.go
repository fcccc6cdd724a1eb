package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/shellq/shellq"
)

// MaxOutputBytes bounds how much of stdout/stderr ShellExecutor buffers
// in memory per stream. A job that writes past this bound has its
// output truncated, not its execution aborted.
const MaxOutputBytes = 1 << 20 // 1 MiB

// TimeoutExitCode is the sentinel ExitCode reported when a command is
// killed for exceeding its timeout, or because ctx was canceled first.
const TimeoutExitCode = -1

// ShellExecutor implements shellq.Executor by running commands through
// the OS shell.
//
// ShellExecutor holds no state and is safe for concurrent use; a single
// instance may be shared across every Worker in a process.
type ShellExecutor struct{}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{}
}

// Execute runs command through the host shell, enforcing timeout. If ctx
// is canceled before the command completes, the child process group is
// killed and Execute returns promptly with a nil error, ExitCode set to
// TimeoutExitCode and TimedOut false.
func (e *ShellExecutor) Execute(ctx context.Context, command string, timeout time.Duration) (shellq.Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.Command(shellName, shellFlag, command)
	setProcessGroup(cmd)

	var stdout, stderr truncatingBuffer
	stdout.limit = MaxOutputBytes
	stderr.limit = MaxOutputBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return shellq.Result{}, err
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		return classify(cmd, err, stdout.Bytes(), stderr.Bytes(), false)
	case <-runCtx.Done():
		killProcessGroup(cmd)
		<-waitErr // reap the child so it does not become a zombie
		timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
		return shellq.Result{
			ExitCode: TimeoutExitCode,
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			TimedOut: timedOut,
		}, nil
	}
}

func classify(cmd *exec.Cmd, waitErr error, stdout, stderr []byte, timedOut bool) (shellq.Result, error) {
	if waitErr == nil {
		return shellq.Result{ExitCode: 0, Stdout: stdout, Stderr: stderr, TimedOut: timedOut}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return shellq.Result{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout,
			Stderr:   stderr,
			TimedOut: timedOut,
		}, nil
	}
	// the child never started running properly (e.g. shell binary missing)
	return shellq.Result{}, waitErr
}

// truncatingBuffer caps the number of bytes retained, discarding the
// remainder silently. A runaway job must not grow the worker's memory
// unbounded.
type truncatingBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *truncatingBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
	} else {
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *truncatingBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
