// Package gateway implements the access gateway: the SSH forced-command
// (or login-shell) entry point. It classifies the invocation as
// Standard or Advanced mode, validates and parses the requested Git
// command, resolves the target repository, enforces the IP and ACL
// checks, and hands off to the next stage in the pipeline.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gitrelay/gitrelay/internal/aclconfig"
	"github.com/gitrelay/gitrelay/internal/identity"
	"github.com/gitrelay/gitrelay/internal/ipguard"
	"github.com/gitrelay/gitrelay/internal/metrics"
	"github.com/gitrelay/gitrelay/internal/repo"
)

var commandPattern = regexp.MustCompile(`^(git-[\w-]+) (.+)$`)

// Phase is the read/write classification of a Git operation.
type Phase string

const (
	PhaseRead  Phase = "read"
	PhaseWrite Phase = "write"
)

// Mode distinguishes the two ways sshd can hand off to this binary.
type Mode string

const (
	ModeAdvanced Mode = "advanced"
	ModeStandard Mode = "standard"
)

// ErrNoSSHContext describes the case where neither SSH_CLIENT nor
// SSH_CONNECTION is present; no function in this package returns it.
var ErrNoSSHContext = errors.New("only SSH allowed")

// ErrNotGitCommand is returned when the resolved command does not match
// commandPattern.
var ErrNotGitCommand = errors.New("shell access denied")

// aclDeniedReadMessage is the literal logged on an ACL-denied read,
// spec.md §8 Scenario 1.
var aclDeniedReadMessage = "Blocked clone or pull attempt!"

// Request is a parsed, not-yet-authorized invocation.
type Request struct {
	Op      string // e.g. "git-upload-pack"
	RepoArg string // raw repo argument, as given on the command line
	Phase   Phase
	Mode    Mode
	Env     map[string]string // KEY=VAL tokens to export (Standard mode only)
}

// Parse classifies argv (excluding argv[0]) as Advanced or Standard mode
// and extracts the operation and repo argument. getenv is used to read
// SSH_ORIGINAL_COMMAND in Standard mode.
func Parse(argv []string, getenv func(string) string) (Request, error) {
	if len(argv) == 2 && argv[0] == "-c" {
		return parseCommand(argv[1], nil, ModeAdvanced)
	}

	cmd := getenv("SSH_ORIGINAL_COMMAND")
	env := map[string]string{}
	for _, tok := range argv {
		key, val, ok := strings.Cut(tok, "=")
		if ok && key != "" {
			env[key] = val
		}
	}

	return parseCommand(cmd, env, ModeStandard)
}

func parseCommand(cmd string, env map[string]string, mode Mode) (Request, error) {
	m := commandPattern.FindStringSubmatch(cmd)
	if m == nil {
		return Request{}, ErrNotGitCommand
	}

	op := m[1]
	repoArg := strings.Trim(m[2], "'")
	repoArg = strings.TrimSuffix(repoArg, ".git")

	phase, err := classify(op)
	if err != nil {
		return Request{}, err
	}

	return Request{Op: op, RepoArg: repoArg, Phase: phase, Mode: mode, Env: env}, nil
}

// classify maps the leading token of a Git command to its read/write
// phase, per spec.md §4.C.
func classify(op string) (Phase, error) {
	switch op {
	case "git-upload-pack", "git-upload-archive":
		return PhaseRead, nil
	case "git-receive-pack":
		return PhaseWrite, nil
	default:
		return "", fmt.Errorf("%w: unrecognized operation %q", ErrNotGitCommand, op)
	}
}

// Authorize resolves req's repository, enforces the IP allow-list and
// ACL membership for id.Key, and returns the absolute GIT_DIR on success.
func Authorize(ctx context.Context, req Request, id identity.Tuple, home string) (string, error) {
	gitDir, err := repo.Resolve(req.RepoArg, home)
	if err != nil {
		return "", fmt.Errorf("resolve repository %q: %w", req.RepoArg, err)
	}

	cfg, err := aclconfig.Load(ctx, gitDir)
	if err != nil {
		return "", fmt.Errorf("load acl config: %w", err)
	}

	if cfg.RestrictIP != "" {
		cidrs, err := ipguard.ParseCIDRList(cfg.RestrictIP, nil)
		if err != nil {
			return "", fmt.Errorf("acl.restrictip: %w", err)
		}
		if net.ParseIP(id.ClientIP) != nil && !ipguard.Check(id.ClientIP, cidrs) {
			metrics.ACLDenied.WithLabelValues("ip").Inc()
			return "", errors.New(ipguard.BlockedMessage())
		}
	}

	var allowed bool
	switch req.Phase {
	case PhaseWrite:
		allowed = cfg.CanWrite(id.Key)
	default:
		allowed = cfg.CanRead(id.Key)
	}
	if !allowed {
		metrics.ACLDenied.WithLabelValues("acl").Inc()
		if req.Phase != PhaseWrite {
			return "", fmt.Errorf("%s: %s has no %s access to %s", aclDeniedReadMessage, id.Key, req.Phase, gitDir)
		}
		return "", fmt.Errorf("denied: %s has no %s access to %s", id.Key, req.Phase, gitDir)
	}

	return gitDir, nil
}

// SelectHandler picks, in priority order, the executable that should run
// the handed-off command: a per-repo override at
// $GIT_DIR/hooks/git-server, the bundled git-server, or the system
// git-shell.
func SelectHandler(gitDir, bundledGitServer string) (string, error) {
	candidate := gitDir + "/hooks/git-server"
	if isExecutable(candidate) {
		return candidate, nil
	}
	if bundledGitServer != "" && isExecutable(bundledGitServer) {
		return bundledGitServer, nil
	}
	if path, err := exec.LookPath("git-shell"); err == nil {
		return path, nil
	}
	return "", errors.New("no git-shell handler available")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// Dispatch execs handler with "-c <op> '<gitDir>'", replacing the current
// process image so the handler's exit status becomes the session's exit
// status verbatim.
func Dispatch(handler, op, gitDir string, env []string) error {
	argv := []string{handler, "-c", fmt.Sprintf("%s '%s'", op, gitDir)}
	return syscallExec(handler, argv, env)
}
