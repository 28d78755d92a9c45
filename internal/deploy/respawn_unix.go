//go:build unix

package deploy

import (
	"os"

	"golang.org/x/sys/unix"
)

// respawn replaces the current process image with a fresh invocation of
// the same binary and argv (scrubbed of any relative --chdir, see
// ScrubArgv), so a freshly-deployed copy of the daemon itself takes over
// without leaving a wrapper process behind.
func respawn(argv []string) error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	return unix.Exec(self, argv, os.Environ())
}
