// Package hookpipeline runs the pre-hook → Git backend → post-hook state
// machine around the Git wire-protocol backends, threading exit statuses
// and the IPC scratch directory between stages.
package hookpipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/gitrelay/gitrelay/internal/identity"
	"github.com/gitrelay/gitrelay/internal/ipc"
	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/gitrelay/gitrelay/internal/metrics"
)

// Phase mirrors gateway.Phase without importing it, to keep hookpipeline
// usable from contexts that never go through the gateway package (e.g.
// direct hook invocation for tests).
type Phase string

const (
	PhaseRead  Phase = "read"
	PhaseWrite Phase = "write"
)

// Invocation carries everything the state machine needs for one session.
type Invocation struct {
	GitDir      string
	Op          string
	Phase       Phase
	OriginalCmd string
	Identity    identity.Tuple
	Options     []string
	Debug       int
}

// Result is the outcome of running the pipeline once.
type Result struct {
	ExitCode int
	IPCDir   string
}

// Run executes the full pre → git → post state machine for inv and
// returns the session's final exit code. Per spec.md §4.C, a post-hook
// can never alter the exit code the client sees.
func Run(ctx context.Context, inv Invocation, log *logging.Logger) (Result, error) {
	pid := os.Getpid()

	ipcDir, err := NewIPCDir(inv.GitDir, string(inv.Phase), pid)
	if err != nil {
		return Result{}, err
	}

	env := baseEnv(inv, ipcDir)

	preExit := 0
	preHook := filepath.Join(inv.GitDir, "hooks", "pre-"+string(inv.Phase))
	if isExecutable(preHook) {
		preExit = runHook(ctx, preHook, inv, env)
	}
	env["GIT_PRE_EXIT_STATUS"] = strconv.Itoa(preExit)
	logPhase(log, inv, "pre", preExit)

	gitExit := preExit
	if preExit == 0 {
		gitExit = runGitBackend(ctx, inv, env)
	}
	env["GIT_EXIT_STATUS"] = strconv.Itoa(gitExit)
	logPhase(log, inv, "git", gitExit)

	rec := ipc.Parse(ipcDir)
	if rec.ExitCode == 0 {
		rec.ExitCode = gitExit
	}
	if err := ipc.Emit(rec, ipcDir, nil); err != nil {
		log.Warnf("emit IPC record for %s: %v", ipcDir, err)
	}

	env["SSH_ORIGINAL_COMMAND"] = inv.OriginalCmd
	postHook := filepath.Join(inv.GitDir, "hooks", "post-"+string(inv.Phase))
	if isExecutable(postHook) {
		postExit := runHook(ctx, postHook, inv, env)
		logPhase(log, inv, "post", postExit)
	}

	if err := CleanupIPCDir(inv.GitDir, ipcDir, inv.Debug != 0); err != nil {
		log.Warnf("IPC cleanup for %s: %v", ipcDir, err)
	}

	return Result{ExitCode: gitExit, IPCDir: ipcDir}, nil
}

func baseEnv(inv Invocation, ipcDir string) map[string]string {
	env := map[string]string{
		"GIT_DIR":             inv.GitDir,
		"KEY":                 inv.Identity.Key,
		"IPC":                 ipcDir,
		"GIT_CONNECTED_EPOCH": strconv.FormatInt(inv.Identity.ConnectedEpoch, 10),
		"DEBUG":               strconv.Itoa(inv.Debug),
	}
	for k, v := range ExportEnv(inv.Options) {
		env[k] = v
	}
	return env
}

func logPhase(log *logging.Logger, inv Invocation, phase string, exit int) {
	status := "ok"
	if exit != 0 {
		status = "nonzero"
	}
	metrics.HookPhaseExit.WithLabelValues(phase, status).Inc()
	log.Infof("phase=%s exit=%d key=%s repo=%s", phase, exit, inv.Identity.Key, inv.GitDir)
}

func runHook(ctx context.Context, path string, inv Invocation, env map[string]string) int {
	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = inv.GitDir
	cmd.Env = mergeEnv(env)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

	if err := cmd.Run(); err != nil {
		return exitCodeOf(err)
	}
	return 0
}

// runGitBackend invokes $GIT_DIR/hooks/git-shell if executable, else the
// system git-shell, with "-c <original cmd>" in the current directory.
func runGitBackend(ctx context.Context, inv Invocation, env map[string]string) int {
	backend := filepath.Join(inv.GitDir, "hooks", "git-shell")
	if !isExecutable(backend) {
		path, err := exec.LookPath("git-shell")
		if err != nil {
			return 1
		}
		backend = path
	}

	cmd := exec.CommandContext(ctx, backend, "-c", inv.OriginalCmd)
	cmd.Env = mergeEnv(env)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

	if err := cmd.Run(); err != nil {
		return exitCodeOf(err)
	}
	return 0
}

func mergeEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func exitCodeOf(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
