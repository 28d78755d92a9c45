//go:build unix

package procname

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// argvBytes is the byte slice backing the kernel's copy of argv[0..n),
// reconstructed once at init time. The Go runtime hands out os.Args as
// strings that alias the original argv block rather than copies of it,
// so overwriting this slice in place is what makes `ps` see a new
// command line without re-exec.
var argvBytes []byte

func init() {
	if len(os.Args) == 0 {
		return
	}

	start := unsafe.Pointer(unsafe.StringData(os.Args[0]))

	total := 0
	for _, a := range os.Args {
		total += len(a) + 1 // NUL-separated in the original block
	}
	if total <= 1 {
		return
	}

	argvBytes = unsafe.Slice((*byte)(start), total-1)
}

// setTitle overwrites the process's argv[0] buffer in place (the
// classic setproctitle trick: the kernel's `ps` reads argv directly out
// of process memory, so truncating/rewriting it changes what `ps`
// shows) and additionally sets the kernel's short thread name via
// PR_SET_NAME so `ps -T`/`top` pick it up too.
func setTitle(title string) error {
	overwriteArgv0(title)

	name := title
	if len(name) > 15 {
		name = name[:15] // TASK_COMM_LEN, including the NUL
	}
	buf := make([]byte, 16)
	copy(buf, name)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}

// overwriteArgv0 reuses the memory backing os.Args (which on Linux is
// contiguous with the rest of the original argv block) to hold title,
// truncating if title is longer than the original argv span.
func overwriteArgv0(title string) {
	if len(argvBytes) == 0 {
		return
	}

	n := copy(argvBytes, title)
	for i := n; i < len(argvBytes); i++ {
		argvBytes[i] = 0
	}
}
