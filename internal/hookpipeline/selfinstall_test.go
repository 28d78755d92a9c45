package hookpipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsStockHooksDirAllSamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-commit.sample"), []byte("x"), 0o644))

	stock, err := IsStockHooksDir(dir)
	require.NoError(t, err)
	require.True(t, stock)
}

func TestIsStockHooksDirRealExecutable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-commit.sample"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-receive"), []byte("#!/bin/sh\n"), 0o755))

	stock, err := IsStockHooksDir(dir)
	require.NoError(t, err)
	require.False(t, stock)
}

func TestIsStockHooksDirMissing(t *testing.T) {
	stock, err := IsStockHooksDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.False(t, stock)
}

func TestSelfInstallSymlinksAndMovesStockHooksAside(t *testing.T) {
	gitDir := t.TempDir()
	hooksDir := filepath.Join(gitDir, "hooks")
	require.NoError(t, os.MkdirAll(hooksDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-commit.sample"), []byte("x"), 0o644))

	invokerHooks := t.TempDir()

	err := SelfInstall(context.Background(), gitDir, invokerHooks, 12345, "alice")
	require.NoError(t, err)

	link, err := os.Readlink(hooksDir)
	require.NoError(t, err)
	require.Equal(t, invokerHooks, link)

	_, err = os.Stat(hooksDir + ".12345.PLEASE_DELETE")
	require.NoError(t, err)
}

func TestSelfInstallSkipsWhenNotStock(t *testing.T) {
	gitDir := t.TempDir()
	hooksDir := filepath.Join(gitDir, "hooks")
	require.NoError(t, os.MkdirAll(hooksDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-receive"), []byte("#!/bin/sh\n"), 0o755))

	err := SelfInstall(context.Background(), gitDir, t.TempDir(), 1, "alice")
	require.NoError(t, err)

	info, err := os.Lstat(hooksDir)
	require.NoError(t, err)
	require.False(t, info.Mode()&os.ModeSymlink != 0)
}
