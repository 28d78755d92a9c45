package deploy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/gitrelay/gitrelay/internal/metrics"
	"github.com/gitrelay/gitrelay/internal/pool"
	"github.com/gitrelay/gitrelay/internal/procname"
	"github.com/gitrelay/gitrelay/internal/psscan"
)

// Daemon is one client-side deploy loop bound to a single Git working
// copy.
type Daemon struct {
	opts    Options
	gitDir  string // resolved via `git rev-parse --git-dir`
	workDir string
	script  string // argv[0] basename, for the ps-title peer protocol
	argv    []string
	log     *logging.Logger

	selfPath    string
	selfModTime time.Time
	watch       *selfWatcher
}

// New resolves GIT_DIR for workDir and returns a Daemon ready to Run.
// argv is the argument vector to use for respawn after a self-update;
// callers must scrub any relative --chdir flag out of it first (see
// ScrubArgv), since the daemon's cwd at startup may differ from the cwd
// a later respawn runs from.
func New(ctx context.Context, opts Options, workDir string, argv []string, log *logging.Logger) (*Daemon, error) {
	gitDir, err := runGit(ctx, workDir, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("resolve GIT_DIR: %w", err)
	}
	gitDir = strings.TrimSpace(gitDir)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(workDir, gitDir)
	}

	selfPath, _ := os.Executable()
	var modTime time.Time
	if info, err := os.Stat(selfPath); err == nil {
		modTime = info.ModTime()
	}

	d := &Daemon{
		opts:        opts,
		gitDir:      gitDir,
		workDir:     workDir,
		script:      filepath.Base(os.Args[0]),
		argv:        argv,
		log:         log,
		selfPath:    selfPath,
		selfModTime: modTime,
	}
	if selfPath != "" {
		d.watch = watchSelf(selfPath, log)
	}
	return d, nil
}

// Run resolves the branch, does the startup checkout/rebuild sequence,
// and then drives the main loop inside a single-task pool
// (internal/pool) until ctx is canceled (returning ctx.Err()) or a
// pathology ends the loop (returning nil).
func (d *Daemon) Run(ctx context.Context) error {
	if d.opts.Background {
		if err := daemonize(); err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
	}

	branch, err := ResolveBranch(ctx, d.workDir, d.opts.Branch)
	if err != nil {
		return fmt.Errorf("resolve branch: %w", err)
	}
	d.opts.Branch = branch

	if _, err := runGit(ctx, d.workDir, "checkout", branch); err != nil {
		return fmt.Errorf("initial checkout %s: %w", branch, err)
	}
	time.Sleep(time.Second)
	d.rebuild(ctx)

	if d.watch != nil {
		defer d.watch.Close()
	}

	p := pool.New(1)
	done := make(chan struct{})
	p.Add("deploy-loop", func(ctx context.Context) time.Time {
		next := d.iterate(ctx)
		if next.IsZero() {
			close(done)
		}
		return next
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// iterate is the pool task function: one pull/rebase cycle, pathology
// classification, and rebuild, returning the next wake-up deadline.
func (d *Daemon) iterate(ctx context.Context) time.Time {
	metrics.DeployLoopIterations.Inc()

	if err := procname.Set(procname.Waiting(d.script, d.workDir)); err != nil {
		d.log.Debugf("set process title: %v", err)
	}

	if d.selfUpdated() {
		metrics.DeployRespawnCount.Inc()
		d.log.Infof("binary updated on disk, respawning")
		if err := respawn(d.argv); err != nil {
			d.log.Errorf("respawn failed: %v", err)
		}
		return time.Now().Add(time.Second) // unreached on a successful respawn
	}

	out, rebaseStuck := d.runSequence(ctx)
	if rebaseStuck {
		_, _ = runGit(ctx, d.workDir, "rebase", "--abort")
	}

	oc := classify(ctx, out, d.opts.Branch, d)
	if oc.matched != "" {
		metrics.DeployPathologyMatched.WithLabelValues(oc.matched).Inc()
	}
	if oc.exit {
		d.log.Infof("pathology %q: exiting loop", oc.matched)
		return time.Time{}
	}

	time.Sleep(time.Second)
	d.rebuild(ctx)

	if oc.sleep > 0 {
		return time.Now().Add(oc.sleep)
	}
	return time.Now()
}

// runSequence runs fetch/checkout/rebase, capturing combined output,
// and reports whether the rebase looks stuck on a conflict.
func (d *Daemon) runSequence(ctx context.Context) (combined string, rebaseStuck bool) {
	var sb strings.Builder

	fetchOut, err := runGit(ctx, d.workDir, "fetch")
	sb.WriteString(fetchOut)
	if err != nil {
		d.log.Warnf("git fetch: %v", err)
	}

	coOut, err := runGit(ctx, d.workDir, "checkout", d.opts.Branch)
	sb.WriteString(coOut)
	if err != nil {
		d.log.Warnf("git checkout %s: %v", d.opts.Branch, err)
	}

	rebaseOut, err := runGit(ctx, d.workDir, "rebase", "origin/"+d.opts.Branch)
	sb.WriteString(rebaseOut)
	if err != nil {
		rebaseStuck = strings.Contains(rebaseOut, "CONFLICT") || strings.Contains(rebaseOut, "could not apply")
	}

	return sb.String(), rebaseStuck
}

// rebuild acquires a non-blocking exclusive flock on $GIT_DIR/config and
// runs the build command synchronously if acquired, serializing builds
// across concurrent deploy daemons against the same repository.
func (d *Daemon) rebuild(ctx context.Context) {
	if d.opts.BuildCmd == "" {
		return
	}

	lock := flock.New(filepath.Join(d.gitDir, "config"))
	ok, err := lock.TryLock()
	if err != nil {
		d.log.Warnf("build lock: %v", err)
		return
	}
	if !ok {
		metrics.DeployBuildLockContended.Inc()
		return
	}
	defer lock.Unlock()

	start := time.Now()
	metrics.DeployBuildCount.Inc()

	cmd := exec.CommandContext(ctx, "sh", "-c", d.opts.BuildCmd)
	cmd.Dir = d.workDir
	out, err := cmd.CombinedOutput()
	metrics.DeployBuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DeployBuildFailed.Inc()
		d.log.Warnf("build command failed: %v\n%s", err, out)
	}
}

// hardReset implements the "Your branch...diverged" recovery: force the
// local branch back onto the remote tip.
func (d *Daemon) hardReset(ctx context.Context, branch string) error {
	if _, err := runGit(ctx, d.workDir, "checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	if _, err := runGit(ctx, d.workDir, "reset", "--hard", "origin/"+branch); err != nil {
		return fmt.Errorf("reset --hard origin/%s: %w", branch, err)
	}
	return nil
}

// peerPresent reports whether another deploy daemon for this same
// script/workDir pair is visible in `ps`.
func (d *Daemon) peerPresent(ctx context.Context) bool {
	present, err := psscan.PeerWaiting(ctx, d.script, d.workDir)
	if err != nil {
		d.log.Debugf("ps scan: %v", err)
		return false
	}
	return present
}

// gitRebaseRunning reports whether a `git rebase` invocation is
// currently visible in `ps`, used to decide whether a stale lock/stale
// rebase-apply directory is actually stale or just in-progress elsewhere.
func (d *Daemon) gitRebaseRunning(ctx context.Context) bool {
	present, err := psscan.ContainsCommand(ctx, "git rebase")
	if err != nil {
		d.log.Debugf("ps scan for git rebase: %v", err)
		return false
	}
	return present
}

// selfUpdated reports whether this process's own binary has changed
// since the daemon started: the fsnotify watcher (selfwatch.go) answers
// immediately when available, falling back to an mtime comparison
// otherwise.
func (d *Daemon) selfUpdated() bool {
	if d.watch != nil {
		return d.watch.Updated()
	}
	if d.selfPath == "" {
		return false
	}
	info, err := os.Stat(d.selfPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(d.selfModTime)
}
