package proxy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/gitrelay/gitrelay/internal/atomicfile"
	"github.com/gitrelay/gitrelay/internal/gitwire"
)

// RefDiff is one ref whose tips differ (or whose presence differs)
// between "here" and "there". A zero Hash means the ref is absent on
// that side.
type RefDiff struct {
	Name  string // full ref name, e.g. refs/heads/main
	Here  plumbing.Hash
	There plumbing.Hash
}

// IsBranch reports whether the diff concerns a branch ref.
func (d RefDiff) IsBranch() bool { return strings.HasPrefix(d.Name, "refs/heads/") }

// ShortName strips the refs/heads/ or refs/tags/ prefix.
func (d RefDiff) ShortName() string {
	if s, ok := strings.CutPrefix(d.Name, "refs/heads/"); ok {
		return s
	}
	return strings.TrimPrefix(d.Name, "refs/tags/")
}

// Diff lists both remotes via ls-remote and returns the refs that
// differ, sorted by name. It returns (nil, true, listing, nil) when both
// sides already agree, in which case callers should write listing to the
// SYNCED sentinel and stop.
func (r *Reconciler) Diff(ctx context.Context, auth transport.AuthMethod) ([]RefDiff, bool, []byte, error) {
	here, err := gitwire.LsRemote(ctx, r.GitDir, nil)
	if err != nil {
		return nil, false, nil, fmt.Errorf("ls-remote here: %w", err)
	}
	there, err := gitwire.LsRemote(ctx, r.ProxyURL, auth)
	if err != nil {
		return nil, false, nil, fmt.Errorf("ls-remote there: %w", err)
	}

	if listingsEqual(here, there) {
		return nil, true, formatListing(here), nil
	}

	return computeDiff(here, there), false, nil, nil
}

func computeDiff(here, there gitwire.RefTipMap) []RefDiff {
	names := make(map[string]struct{}, len(here)+len(there))
	for n := range here {
		names[n] = struct{}{}
	}
	for n := range there {
		names[n] = struct{}{}
	}

	keys := make([]string, 0, len(names))
	for n := range names {
		keys = append(keys, n)
	}
	sort.Strings(keys)

	var diffs []RefDiff
	for _, n := range keys {
		h, t := here[n], there[n]
		if h != t {
			diffs = append(diffs, RefDiff{Name: n, Here: h, There: t})
		}
	}
	return diffs
}

func listingsEqual(a, b gitwire.RefTipMap) bool {
	if len(a) != len(b) {
		return false
	}
	for n, h := range a {
		if b[n] != h {
			return false
		}
	}
	return true
}

func formatListing(m gitwire.RefTipMap) []byte {
	keys := make([]string, 0, len(m))
	for n := range m {
		keys = append(keys, n)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, n := range keys {
		fmt.Fprintf(&sb, "%s\t%s\n", m[n].String(), n)
	}
	return []byte(sb.String())
}

// WriteSynced atomically writes listing to the SYNCED sentinel.
func (r *Reconciler) WriteSynced(listing []byte) error {
	return atomicfile.Write(r.SyncedPath(), listing, 0o644)
}

// UnlinkSynced removes the SYNCED sentinel, marking the pair as
// unsynced.
func (r *Reconciler) UnlinkSynced() error {
	return atomicfile.Remove(r.SyncedPath())
}

// SyncedPresent reports whether the SYNCED sentinel exists and is
// non-empty.
func (r *Reconciler) SyncedPresent() (bool, error) {
	data, err := atomicfile.Read(r.SyncedPath())
	if err != nil {
		return false, err
	}
	return len(data) > 0, nil
}
