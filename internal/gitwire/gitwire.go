// Package gitwire wraps the handful of go-git operations the access
// gateway and the proxy reconciler need: opening and validating a bare
// repository, cloning/fetching/checking-out/pushing against a named
// remote, and walking ancestry to decide which side of a divergent ref is
// ahead. It intentionally does not support stored credentials — every
// authenticated operation goes through the forwarded SSH agent, because
// this system must never hold a secret on disk (see DESIGN.md).
package gitwire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// LooksLikeGitDir reports whether path is a directory that could plausibly
// be a GIT_DIR: it must exist, be a directory, and contain a HEAD file.
// This is cheaper and safer than a full PlainOpen for candidate-path
// probing (§3's repository handle resolution tries up to four candidates).
func LooksLikeGitDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	head, err := os.Stat(filepath.Join(path, "HEAD"))
	return err == nil && !head.IsDir()
}

// OpenBare opens an existing bare repository at gitDir.
func OpenBare(gitDir string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(gitDir, &git.PlainOpenOptions{
		DetectDotGit:          false,
		EnableDotGitCommonDir: false,
	})
}

// RefTipMap is the {name -> hash} mapping produced by ls-remote, already
// filtered down to refs/heads/* and refs/tags/*.
type RefTipMap map[string]plumbing.Hash

// LsRemote lists the heads and tags advertised by a remote URL without
// requiring a local clone, mirroring `git ls-remote`.
func LsRemote(ctx context.Context, url string, auth transport.AuthMethod) (RefTipMap, error) {
	remote := git.NewRemote(nil, &gitconfig.RemoteConfig{Name: "probe", URLs: []string{url}})

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil {
		return nil, fmt.Errorf("ls-remote %s: %w", url, err)
	}

	out := make(RefTipMap, len(refs))
	for _, ref := range refs {
		name := ref.Name()
		if name.IsBranch() || name.IsTag() {
			out[string(name)] = ref.Hash()
		}
	}
	return out, nil
}

// Clone clones url into dest using remoteName as the sole remote, without
// checking anything out (callers decide what to check out afterward).
func Clone(ctx context.Context, dest, remoteName, url string, auth transport.AuthMethod) (*git.Repository, error) {
	return git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		RemoteName: remoteName,
		URL:        url,
		Auth:       auth,
		NoCheckout: true,
	})
}

// AddRemote attaches an additional remote to an existing working clone.
func AddRemote(repo *git.Repository, name, url string) error {
	_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
	return err
}

// RemoteURL returns the configured URL of a named remote, or "" if it does
// not exist.
func RemoteURL(repo *git.Repository, name string) string {
	remote, err := repo.Remote(name)
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return remote.Config().URLs[0]
}

// Fetch fetches all heads and tags from remoteName, force-updating the
// corresponding remote-tracking refs. A no-op fetch is not an error.
func Fetch(ctx context.Context, repo *git.Repository, remoteName string, auth transport.AuthMethod) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       auth,
		Force:      true,
		Tags:       git.AllTags,
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remoteName)),
			gitconfig.RefSpec("+refs/tags/*:refs/tags/*"),
		},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", remoteName, err)
	}
	return nil
}

// CheckoutTracking checks out branch, creating a local branch tracking
// remoteName/branch if one does not already exist locally.
func CheckoutTracking(repo *git.Repository, remoteName, branch string) error {
	w, err := repo.Worktree()
	if err != nil {
		return err
	}

	local := plumbing.NewBranchReferenceName(branch)
	if err := w.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err == nil {
		return nil
	}

	remoteRef := plumbing.NewRemoteReferenceName(remoteName, branch)
	ref, err := repo.Reference(remoteRef, true)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", remoteRef, err)
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(local, ref.Hash())); err != nil {
		return err
	}

	return w.Checkout(&git.CheckoutOptions{Branch: local, Force: true})
}

// SetBranchForce force-updates (or creates) a local branch to point at
// hash, without touching the worktree.
func SetBranchForce(repo *git.Repository, branch string, hash plumbing.Hash) error {
	return repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash))
}

// SetTagForce force-updates (or creates) a lightweight tag to point at
// hash.
func SetTagForce(repo *git.Repository, tag string, hash plumbing.Hash) error {
	return repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewTagReferenceName(tag), hash))
}

// DeleteRef removes a local branch or tag reference.
func DeleteRef(repo *git.Repository, name plumbing.ReferenceName) error {
	return repo.Storer.RemoveReference(name)
}

// Push pushes refspec to remoteName, optionally with --force semantics.
func Push(ctx context.Context, repo *git.Repository, remoteName string, refspec gitconfig.RefSpec, force bool, auth transport.AuthMethod) error {
	if force && len(refspec) > 0 && refspec[0] != '+' {
		refspec = "+" + refspec
	}
	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{refspec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push %s to %s: %w", refspec, remoteName, err)
	}
	return nil
}

// IsAncestor reports whether ancestor is a (non-strict) ancestor of
// descendant, i.e. descendant's history contains ancestor. This replaces
// the teacher's shell-level `git log A | grep B` probe with go-git's own
// commit walk.
func IsAncestor(repo *git.Repository, ancestor, descendant plumbing.Hash) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	a, err := repo.CommitObject(ancestor)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", ancestor, err)
	}
	d, err := repo.CommitObject(descendant)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", descendant, err)
	}
	return a.IsAncestor(d)
}

// AgentAuth builds an SSH AuthMethod sourced from the process's forwarded
// ssh-agent (SSH_AUTH_SOCK). It never reads or stores a private key
// itself. If SSH_AUTH_SOCK is unset it returns an error naming the
// ForwardAgent hint from spec.md §4.D; if the socket cannot be dialed it
// returns the dial error.
func AgentAuth(user string, hostKeyCallback ssh.HostKeyCallback) (transport.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is unset: enable ForwardAgent for the proxy's SSH connection")
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connect to ssh-agent at %s: %w", sock, err)
	}

	return &gitssh.PublicKeysCallback{
		User:     user,
		Callback: agent.NewClient(conn).Signers,
		HostKeyCallbackHelper: gitssh.HostKeyCallbackHelper{
			HostKeyCallback: hostKeyCallback,
		},
	}, nil
}

// KnownHostsCallback loads a HostKeyCallback from a known_hosts file,
// typically ~/.ssh/known_hosts after ssh-keyscan has appended the proxy
// host's key to it (spec.md §4.D bootstrap).
func KnownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	return knownhosts.New(path)
}
