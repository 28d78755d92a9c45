// Package atomicfile writes files with a write-temp-rename sequence so a
// reader never observes a partially written file. The proxy reconciler
// uses it for the .git/SYNCED sentinel, which is the only state
// connecting a pre-hook's decision to its matching post-hook's decision.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write creates (or replaces) path with data, via a temp file in the same
// directory followed by os.Rename, so a concurrent reader sees either the
// old content or the new content, never a partial write.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file into %s: %w", path, err)
	}

	return nil
}

// Remove deletes path if it exists; a missing file is not an error,
// matching the SYNCED sentinel's "absent means unsynced" contract.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Read returns the content of path, or (nil, nil) if it does not exist —
// callers treat an absent SYNCED file as "unsynced", not an error.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
