//go:build unix

package gateway

import "golang.org/x/sys/unix"

// syscallExec replaces the current process image, so the handler's own
// exit status becomes this process's exit status with no wrapper frame
// left behind.
func syscallExec(handler string, argv []string, env []string) error {
	return unix.Exec(handler, argv, env)
}
