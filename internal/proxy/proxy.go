// Package proxy implements the two-way proxy reconciler: it keeps a
// local bare repository ("here") bidirectionally in sync with a
// configured upstream ("there"), using a persisted SYNCED sentinel to
// decide which directional policy applies.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/gitrelay/gitrelay/internal/gitwire"
)

const (
	hereRemote  = "here"
	thereRemote = "there"
)

// ErrMismatch is returned by ConsistencyCheck when the workdir's remotes
// no longer point where this reconciler expects.
var ErrMismatch = errors.New("proxy mismatch")

// Reconciler holds everything needed to reconcile one repository against
// its configured proxy.
type Reconciler struct {
	GitDir         string // local bare repository ("here")
	WorkDir        string // <GIT_DIR>.workingdir
	ProxyURL       string // "there"
	KnownHostsPath string
	AuthUser       string
}

// SyncedPath returns the path of the sentinel file inside the workdir.
func (r *Reconciler) SyncedPath() string {
	return r.WorkDir + "/.git/SYNCED"
}

// Bootstrap clones the workdir from GitDir and wires up the "there"
// remote if the workdir does not already exist. On a post-* phase it
// does nothing, since the matching pre-* phase already had its chance.
func (r *Reconciler) Bootstrap(ctx context.Context, phase string) (*git.Repository, error) {
	if info, err := os.Stat(r.WorkDir); err == nil && info.IsDir() {
		return gitwire.OpenBare(r.workTreeGitDir())
	}

	if strings.HasPrefix(phase, "post-") {
		return nil, nil
	}

	repo, err := gitwire.Clone(ctx, r.WorkDir, hereRemote, r.GitDir, nil)
	if err != nil {
		return nil, fmt.Errorf("clone %s into %s: %w", r.GitDir, r.WorkDir, err)
	}

	if err := gitwire.AddRemote(repo, thereRemote, r.ProxyURL); err != nil {
		os.RemoveAll(r.WorkDir)
		return nil, fmt.Errorf("add remote there: %w", err)
	}

	if host := sshHost(r.ProxyURL); host != "" {
		if !knownHostsHas(r.KnownHostsPath, host) {
			if err := scanKnownHost(ctx, host, r.KnownHostsPath); err != nil {
				os.RemoveAll(r.WorkDir)
				return nil, fmt.Errorf("ssh-keyscan %s: %w", host, err)
			}
		}
	}

	auth, authErr := r.auth()
	if authErr != nil {
		os.RemoveAll(r.WorkDir)
		return nil, authErr
	}

	if err := gitwire.Fetch(ctx, repo, thereRemote, auth); err != nil {
		os.RemoveAll(r.WorkDir)
		return nil, fmt.Errorf("verify there is reachable: %w", err)
	}
	if _, err := gitwire.LsRemote(ctx, r.ProxyURL, auth); err != nil {
		os.RemoveAll(r.WorkDir)
		return nil, fmt.Errorf("verify there is reachable: %w", err)
	}

	return repo, nil
}

// ConsistencyCheck tears down the workdir and returns ErrMismatch if its
// remotes no longer point at the repositories this reconciler expects.
func (r *Reconciler) ConsistencyCheck(repo *git.Repository) error {
	if gitwire.RemoteURL(repo, hereRemote) != r.GitDir || gitwire.RemoteURL(repo, thereRemote) != r.ProxyURL {
		os.RemoveAll(r.WorkDir)
		return ErrMismatch
	}
	return nil
}

func (r *Reconciler) workTreeGitDir() string {
	return r.WorkDir + "/.git"
}

// auth builds the SSH-agent-forwarded auth method for the "there" remote,
// only if it is an SSH URL; non-SSH proxy URLs (e.g. a local file path
// used in tests) need no auth at all.
func (r *Reconciler) auth() (transport.AuthMethod, error) {
	if !strings.HasPrefix(r.ProxyURL, "ssh://") && !strings.Contains(r.ProxyURL, "@") {
		return nil, nil
	}
	hostKeyCB, err := gitwire.KnownHostsCallback(r.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}
	user := r.AuthUser
	if user == "" {
		user = "git"
	}
	return gitwire.AgentAuth(user, hostKeyCB)
}

func sshHost(url string) string {
	rest, ok := strings.CutPrefix(url, "ssh://")
	if !ok {
		if at := strings.Index(url, "@"); at >= 0 && strings.Contains(url, ":") {
			rest = url[at+1:]
		} else {
			return ""
		}
	}
	if at := strings.Index(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, ":")
	return host
}

func knownHostsHas(path, host string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), host)
}

// scanKnownHost runs `ssh-keyscan host` and appends the result to
// knownHostsPath; ssh-keyscan is an out-of-scope external collaborator
// per spec.md §1, invoked as a subprocess.
func scanKnownHost(ctx context.Context, host, knownHostsPath string) error {
	out, err := exec.CommandContext(ctx, "ssh-keyscan", host).Output()
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return fmt.Errorf("ssh-keyscan %s returned no keys", host)
	}

	f, err := os.OpenFile(knownHostsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

// forwardAgentHint is appended to bootstrap failures when SSH_AUTH_SOCK
// is unset, per spec.md §4.D.
func forwardAgentHint() string {
	if os.Getenv("SSH_AUTH_SOCK") == "" {
		return " (hint: enable ForwardAgent so an ssh-agent is available)"
	}
	return ""
}
