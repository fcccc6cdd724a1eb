package shellq

import (
	"context"
	"time"
)

// Result is the outcome of running a job's command through an Executor.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	TimedOut bool
}

// Success reports whether the command completed with exit code 0 and did
// not time out.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Executor runs a job's opaque command string through the OS shell and
// reports its outcome.
//
// Execute must enforce timeout: it terminates the child process tree and
// returns with TimedOut set to true if the command does not complete
// within timeout. Execute performs no retries and touches no store; it
// is a pure subprocess boundary.
//
// If ctx is canceled before the command completes (worker shutdown),
// Execute must kill the child process tree and return promptly; it
// should not leak the child process.
type Executor interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (Result, error)
}
