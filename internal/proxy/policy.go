package proxy

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/gitrelay/gitrelay/internal/gitwire"
	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/gitrelay/gitrelay/internal/metrics"
)

// HealBidirectional applies the pre-* / SYNCED-absent policy: for each
// differing ref, the older side is force-updated to the newer side's
// tip using an ancestor probe; a ref missing on one side is created
// there; a ref whose sides are mutually non-ancestors is skipped as
// "too divergent".
func HealBidirectional(ctx context.Context, repo *git.Repository, diffs []RefDiff, auth transport.AuthMethod, log *logging.Logger) {
	for _, d := range diffs {
		switch {
		case d.Here != plumbing.ZeroHash && d.There != plumbing.ZeroHash:
			healDivergentRef(ctx, repo, d, auth, log)
		case d.Here == plumbing.ZeroHash:
			createMissing(ctx, repo, d, d.There, hereRemote, nil, log)
		default:
			createMissing(ctx, repo, d, d.Here, thereRemote, auth, log)
		}
	}
}

func healDivergentRef(ctx context.Context, repo *git.Repository, d RefDiff, auth transport.AuthMethod, log *logging.Logger) {
	hereOlder, err := gitwire.IsAncestor(repo, d.Here, d.There)
	if err != nil {
		log.Warnf("ancestor check %s: %v", d.Name, err)
		return
	}
	thereOlder, err := gitwire.IsAncestor(repo, d.There, d.Here)
	if err != nil {
		log.Warnf("ancestor check %s: %v", d.Name, err)
		return
	}

	switch {
	case hereOlder:
		if err := pushHash(ctx, repo, d, d.There, hereRemote, nil); err != nil {
			log.Warnf("heal %s (here<-there): %v", d.Name, err)
			return
		}
		metrics.ProxyRefsUpdated.WithLabelValues("here").Inc()
	case thereOlder:
		if err := pushHash(ctx, repo, d, d.Here, thereRemote, auth); err != nil {
			log.Warnf("heal %s (there<-here): %v", d.Name, err)
			return
		}
		metrics.ProxyRefsUpdated.WithLabelValues("there").Inc()
	default:
		metrics.ProxyRefsTooDivergent.Inc()
		log.Warnf("too divergent, skipping: %s", d.Name)
	}
}

func createMissing(ctx context.Context, repo *git.Repository, d RefDiff, hash plumbing.Hash, side string, auth transport.AuthMethod, log *logging.Logger) {
	if err := pushHash(ctx, repo, d, hash, side, auth); err != nil {
		log.Warnf("create %s on %s: %v", d.Name, side, err)
		return
	}
	metrics.ProxyRefsUpdated.WithLabelValues(side).Inc()
}

// pushHash force-sets d's ref locally to hash, then force-pushes it to
// remoteName.
func pushHash(ctx context.Context, repo *git.Repository, d RefDiff, hash plumbing.Hash, remoteName string, auth transport.AuthMethod) error {
	refName := plumbing.ReferenceName(d.Name)
	if err := repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return err
	}
	refspec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", d.Name, d.Name))
	return gitwire.Push(ctx, repo, remoteName, refspec, true, auth)
}

func deleteRef(ctx context.Context, repo *git.Repository, d RefDiff, remoteName string, auth transport.AuthMethod) error {
	_ = gitwire.DeleteRef(repo, plumbing.ReferenceName(d.Name))
	refspec := gitconfig.RefSpec(":" + d.Name)
	return gitwire.Push(ctx, repo, remoteName, refspec, false, auth)
}

// SyncRemoteToLocal applies the pre-* / SYNCED-present policy: "there"
// wins for every differing ref, mirrored onto "here".
func SyncRemoteToLocal(ctx context.Context, r *Reconciler, repo *git.Repository, diffs []RefDiff, log *logging.Logger) {
	for _, d := range diffs {
		switch {
		case d.There == plumbing.ZeroHash:
			if err := deleteRef(ctx, repo, d, hereRemote, nil); err != nil {
				log.Warnf("delete %s on here: %v", d.Name, err)
			}
		case !d.IsBranch():
			createMissing(ctx, repo, d, d.There, hereRemote, nil, log)
		default:
			syncBranch(ctx, r, repo, d, thereRemote, hereRemote, nil, log)
		}
	}
}

// SyncLocalToRemote applies the post-write / SYNCED-present policy: the
// mirror image of SyncRemoteToLocal, directed from "here" to "there".
func SyncLocalToRemote(ctx context.Context, r *Reconciler, repo *git.Repository, diffs []RefDiff, auth transport.AuthMethod, log *logging.Logger) {
	for _, d := range diffs {
		switch {
		case d.Here == plumbing.ZeroHash:
			if err := deleteRef(ctx, repo, d, thereRemote, auth); err != nil {
				log.Warnf("delete %s on there: %v", d.Name, err)
			}
		case !d.IsBranch():
			createMissing(ctx, repo, d, d.Here, thereRemote, auth, log)
		default:
			syncBranch(ctx, r, repo, d, hereRemote, thereRemote, auth, log)
		}
	}
}

// syncBranch checks out d's branch tracking fromRemote, rebases onto it,
// and pushes the result to toRemote. Branch rebase/push failures skip
// the ref and continue, per spec.md §4.D.
func syncBranch(ctx context.Context, r *Reconciler, repo *git.Repository, d RefDiff, fromRemote, toRemote string, auth transport.AuthMethod, log *logging.Logger) {
	name := d.ShortName()

	if err := gitwire.CheckoutTracking(repo, fromRemote, name); err != nil {
		log.Warnf("checkout %s tracking %s/%s: %v", name, fromRemote, name, err)
		return
	}
	if err := rebaseOnto(ctx, r.WorkDir, fromRemote, name); err != nil {
		log.Warnf("rebase %s onto %s/%s: %v", name, fromRemote, name, err)
		return
	}
	refspec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", d.Name, d.Name))
	if err := gitwire.Push(ctx, repo, toRemote, refspec, true, auth); err != nil {
		log.Warnf("push %s to %s: %v", name, toRemote, err)
		return
	}
	metrics.ProxyRefsUpdated.WithLabelValues(toRemote).Inc()
}

// rebaseOnto shells out to `git rebase`, since go-git has no rebase
// primitive of its own; a failed rebase is aborted so the workdir is
// left clean for the next reconcile attempt.
func rebaseOnto(ctx context.Context, workDir, remoteName, branch string) error {
	if err := runGit(ctx, workDir, "rebase", remoteName+"/"+branch); err != nil {
		_ = runGit(ctx, workDir, "rebase", "--abort")
		return err
	}
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, out)
	}
	return nil
}
