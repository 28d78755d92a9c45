// Package repo resolves a client-supplied repository argument to an
// absolute GIT_DIR, trying the same candidate paths Git's own forced
// commands try, and validates the result looks like a real bare
// repository rather than an arbitrary directory.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitrelay/gitrelay/internal/gitwire"
)

// ErrNotFound is returned when none of the candidate paths resolve to a
// Git directory.
var ErrNotFound = errors.New("repository not found")

// Resolve maps the repo argument taken from a command string like
// `git-upload-pack '<repo>'` to an absolute GIT_DIR, trying in order:
// "<r>.git/.git", "<r>/.git", "<r>.git", "<r>". A leading "/" is stripped
// and a leading "~/" is expanded relative to home. The first candidate
// that is a directory containing a HEAD file wins.
func Resolve(arg, home string) (string, error) {
	r := strings.TrimSuffix(strings.Trim(arg, "'"), ".git")
	r = strings.TrimPrefix(r, "/")
	r = expandHome(r, home)

	candidates := []string{
		r + ".git/.git",
		filepath.Join(r, ".git"),
		r + ".git",
		r,
	}

	for _, c := range candidates {
		abs := c
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(home, abs)
		}
		if gitwire.LooksLikeGitDir(abs) {
			return abs, nil
		}
	}

	return "", ErrNotFound
}

func expandHome(p, home string) string {
	switch {
	case p == "~":
		return home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(home, p[2:])
	default:
		return p
	}
}

// Open validates that gitDir both resolves and is openable as a bare Git
// repository, returning the same error the gateway should report to a
// denied client.
func Open(gitDir string) error {
	info, err := os.Stat(gitDir)
	if err != nil {
		return ErrNotFound
	}
	if !info.IsDir() {
		return ErrNotFound
	}
	if _, err := gitwire.OpenBare(gitDir); err != nil {
		return err
	}
	return nil
}
