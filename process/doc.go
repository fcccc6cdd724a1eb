// Package process provides a shellq.Executor implementation that runs a
// job's command string through the host OS shell.
//
// ShellExecutor spawns "sh -c <command>" on Unix and "cmd /C <command>"
// on Windows, buffers stdout/stderr in memory, and enforces a wall-clock
// timeout by killing the child. On Unix the kill targets the child's
// entire process group, so pipelines and shell builtins do not outlive
// the deadline. On Windows only the immediate child (cmd.exe) is killed;
// processes it has started are not terminated.
package process
