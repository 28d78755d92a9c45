// Package psscan detects sibling deploy daemons by scanning `ps` output
// for the process-title prefix procname.Waiting produces, per spec.md
// §4.E/§9's "ps-based self-coordination" design note.
package psscan

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// PeerWaiting reports whether some other process's command line
// contains the conventional "<script> - <cwd>: Waiting" title prefix
// for the given script and working directory. It runs `ps fauwwx`,
// falling back to `ps auwwx` if that invocation fails (e.g. on
// platforms without BSD-style `ps` flags), both of which are
// out-of-scope external collaborators per spec.md §1. The line whose PID
// column is the calling process's own PID is skipped.
func PeerWaiting(ctx context.Context, script, cwd string) (bool, error) {
	prefix := script + " - " + cwd + ": Waiting"
	out, err := runPS(ctx, "fauwwx")
	if err != nil {
		out, err = runPS(ctx, "auwwx")
		if err != nil {
			return false, err
		}
	}
	self := strconv.Itoa(os.Getpid())
	for _, line := range strings.Split(string(out), "\n") {
		if f := strings.Fields(line); len(f) > 1 && f[1] == self {
			continue
		}
		if strings.Contains(line, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// ContainsCommand reports whether any line of a `ps fauwwx` listing
// (falling back to `ps auwwx`) contains substr, the calling process's
// own line included. Used for spotting a concurrently running
// `git rebase`/`git` subprocess when deciding whether a lock or a
// rebase-apply directory is genuinely stale.
func ContainsCommand(ctx context.Context, substr string) (bool, error) {
	out, err := runPS(ctx, "fauwwx")
	if err != nil {
		out, err = runPS(ctx, "auwwx")
		if err != nil {
			return false, err
		}
	}
	return containsLine(string(out), substr), nil
}

// containsLine reports whether any line of a `ps` listing contains substr.
func containsLine(psOutput, substr string) bool {
	for _, line := range strings.Split(psOutput, "\n") {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func runPS(ctx context.Context, args string) ([]byte, error) {
	return exec.CommandContext(ctx, "ps", args).Output()
}
