//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

const (
	shellName = "cmd"
	shellFlag = "/C"
)

// setProcessGroup places the child in a new process group so it can be
// terminated as a unit without also signalling the worker itself.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killProcessGroup terminates the immediate child (cmd.exe) with
// Process.Kill. Windows has no direct equivalent of POSIX's negative-pid
// group kill, and processes started by cmd.exe are not terminated.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
