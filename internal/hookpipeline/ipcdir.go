package hookpipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// NewIPCDir creates the per-invocation scratch directory at
// $GIT_DIR/tmp/current-<phase>-<pid>-io/, 0700, and returns its path.
func NewIPCDir(gitDir string, phase string, pid int) (string, error) {
	dir := filepath.Join(gitDir, "tmp", fmt.Sprintf("current-%s-%d-io", phase, pid))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create IPC dir %s: %w", dir, err)
	}
	return dir, nil
}

// CleanupIPCDir removes everything matching "$IPC*" alongside the IPC
// directory's parent, then attempts to rmdir $GIT_DIR/tmp (only
// succeeds if it is already empty). debug, when true, skips cleanup so
// an operator can inspect the scratch directory after the fact.
func CleanupIPCDir(gitDir, ipcDir string, debug bool) error {
	if debug {
		return nil
	}

	tmpDir := filepath.Dir(ipcDir)
	pattern := filepath.Base(ipcDir) + "*"
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile IPC cleanup glob %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", tmpDir, err)
	}

	for _, e := range entries {
		if g.Match(e.Name()) {
			if err := os.RemoveAll(filepath.Join(tmpDir, e.Name())); err != nil {
				return fmt.Errorf("remove %s: %w", e.Name(), err)
			}
		}
	}

	// Best-effort: only removes tmpDir if it is now empty.
	_ = os.Remove(tmpDir)

	return nil
}
