// Package fsutil holds small filesystem predicates used by the hook
// pipeline.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
)

// ContainsFiles returns true if the given fs.FS contains any regular
// files, false otherwise. The hook pipeline uses it to tell a genuinely
// empty hooks/ directory apart from one holding nothing but Git's own
// *.sample files versus a directory that already has real executables in
// it, before deciding whether self-install is safe.
func ContainsFiles(fsys fs.FS) (bool, error) {
	// errFound is a sentinel error used to stop the walk when a file is found.
	errFound := os.ErrExist

	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			// Found a file, so return a special error to stop the walk.
			return errFound
		}
		return nil
	})
	if err == errFound {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}
