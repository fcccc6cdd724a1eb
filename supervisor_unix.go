//go:build !windows

package shellq

import "syscall"

// workerSysProcAttr puts each worker child in its own process group so a
// signal to the supervisor never also lands on the worker directly; the
// Supervisor relays signals explicitly via relay instead.
func workerSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
