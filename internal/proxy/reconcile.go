package proxy

import (
	"context"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/gitrelay/gitrelay/internal/gitwire"
	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/gitrelay/gitrelay/internal/metrics"
)

// Reconcile runs one full reconcile attempt for the given hook phase
// (pre-read, pre-write, post-read, post-write). It is advisory: every
// failure is logged and absorbed so the caller always sees a nil error
// and the surrounding Git operation is never blocked, per spec.md §7.
func Reconcile(ctx context.Context, r *Reconciler, phase string, log *logging.Logger) error {
	start := time.Now()

	repo, err := r.Bootstrap(ctx, phase)
	if err != nil {
		metrics.ProxyReconcileErrored("bootstrap", start)
		log.Warnf("proxy bootstrap: %v%s", err, forwardAgentHint())
		return nil
	}
	if repo == nil {
		return nil // post-* with no workdir yet: pre had its chance.
	}

	if err := r.ConsistencyCheck(repo); err != nil {
		metrics.ProxyReconcileErrored("consistency", start)
		log.Warnf("proxy consistency check: %v", err)
		return nil
	}

	auth, err := r.auth()
	if err != nil {
		metrics.ProxyReconcileErrored("auth", start)
		log.Warnf("proxy auth: %v%s", err, forwardAgentHint())
		return nil
	}

	diffs, equal, listing, err := r.Diff(ctx, auth)
	if err != nil {
		metrics.ProxyReconcileErrored("diff", start)
		log.Warnf("proxy diff: %v", err)
		_ = r.UnlinkSynced()
		return nil
	}
	if equal {
		if err := r.WriteSynced(listing); err != nil {
			log.Warnf("write SYNCED: %v", err)
		}
		metrics.ProxyReconcileSucceeded("noop", start)
		return nil
	}

	if err := gitwire.Fetch(ctx, repo, hereRemote, nil); err != nil {
		log.Warnf("fetch here: %v", err)
	}
	if err := gitwire.Fetch(ctx, repo, thereRemote, auth); err != nil {
		log.Warnf("fetch there: %v", err)
	}

	syncedPresent, _ := r.SyncedPresent()
	applyPolicy(ctx, r, repo, phase, diffs, syncedPresent, auth, log)

	r.finalize(ctx, auth, log)

	metrics.ProxyReconcileSucceeded(phase, start)
	return nil
}

// applyPolicy dispatches to the directional policy named by spec.md
// §4.D's table, keyed on (phase, SYNCED presence).
func applyPolicy(ctx context.Context, r *Reconciler, repo *git.Repository, phase string, diffs []RefDiff, syncedPresent bool, auth transport.AuthMethod, log *logging.Logger) {
	switch {
	case strings.HasPrefix(phase, "pre-") && syncedPresent:
		SyncRemoteToLocal(ctx, r, repo, diffs, log)
	case strings.HasPrefix(phase, "pre-") && !syncedPresent:
		HealBidirectional(ctx, repo, diffs, auth, log)
	case phase == "post-write" && syncedPresent:
		SyncLocalToRemote(ctx, r, repo, diffs, auth, log)
	default:
		// post-read and any other phase: do nothing.
	}
}

// finalize re-reads both ls-remote outputs after a sync attempt; if they
// now agree, the SYNCED sentinel is (re)written, otherwise it is
// unlinked.
func (r *Reconciler) finalize(ctx context.Context, auth transport.AuthMethod, log *logging.Logger) {
	here, err := gitwire.LsRemote(ctx, r.GitDir, nil)
	if err != nil {
		log.Warnf("finalize ls-remote here: %v", err)
		_ = r.UnlinkSynced()
		return
	}
	there, err := gitwire.LsRemote(ctx, r.ProxyURL, auth)
	if err != nil {
		log.Warnf("finalize ls-remote there: %v", err)
		_ = r.UnlinkSynced()
		return
	}

	if listingsEqual(here, there) {
		if err := r.WriteSynced(formatListing(here)); err != nil {
			log.Warnf("write SYNCED: %v", err)
		}
		return
	}

	_ = r.UnlinkSynced()
}
