package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gitrelay/gitrelay/internal/logging"
)

func newTestDaemon(t *testing.T) *Daemon {
	return &Daemon{
		opts:    Options{Branch: "main"},
		workDir: t.TempDir(),
		script:  "git-deploy",
		log:     logging.New("deploy-test", false),
	}
}

func TestClassifyUpToDate(t *testing.T) {
	d := newTestDaemon(t)
	oc := classify(context.Background(), "Current branch main is up to date.\n", "main", d)
	require.Equal(t, "up-to-date", oc.matched)
	require.False(t, oc.exit)
	require.GreaterOrEqual(t, oc.sleep, 5*time.Second)
	require.LessOrEqual(t, oc.sleep, 59*time.Second)
}

func TestClassifyUnrecognizedExits(t *testing.T) {
	d := newTestDaemon(t)
	oc := classify(context.Background(), "some totally unexpected error\n", "main", d)
	require.True(t, oc.exit)
	require.Equal(t, "unrecognized", oc.matched)
}

func TestClassifyBenignNoMatch(t *testing.T) {
	d := newTestDaemon(t)
	oc := classify(context.Background(), "fast-forward\nUnpacking objects: 100% done.\n", "main", d)
	require.False(t, oc.exit)
	require.Empty(t, oc.matched)
}

func TestClassifyUnstagedSleepsWhenNoPeer(t *testing.T) {
	d := newTestDaemon(t)
	oc := classify(context.Background(), "error: You have unstaged changes.\n", "main", d)
	require.Equal(t, "unstaged", oc.matched)
	require.False(t, oc.exit)
	require.Equal(t, 10*time.Second, oc.sleep)
}

func TestClassifyLockCollisionRemovesLockWhenNoRebaseRunning(t *testing.T) {
	d := newTestDaemon(t)
	lockPath := filepath.Join(d.workDir, ".git", "index.lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o755))
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))

	out := "fatal: Unable to create '" + lockPath + "': File exists.\n"
	oc := classify(context.Background(), out, "main", d)
	require.Equal(t, "lock-collision", oc.matched)
	require.Equal(t, 60*time.Second, oc.sleep)
	_, err := os.Stat(lockPath)
	require.True(t, os.IsNotExist(err))
}

func TestStaleRebaseDirFreshIsNotStale(t *testing.T) {
	d := newTestDaemon(t)
	dir := filepath.Join(d.workDir, "rebase-apply")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.False(t, d.staleRebaseDir(dir))
}
