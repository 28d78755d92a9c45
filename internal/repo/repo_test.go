package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeBareRepo(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
}

func TestResolveDirectMatch(t *testing.T) {
	home := t.TempDir()
	makeBareRepo(t, filepath.Join(home, "example.git"))

	got, err := Resolve("example", home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "example.git"), got)
}

func TestResolveQuotedArgWithGitSuffix(t *testing.T) {
	home := t.TempDir()
	makeBareRepo(t, filepath.Join(home, "example.git"))

	got, err := Resolve("'example.git'", home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "example.git"), got)
}

func TestResolveTildeExpansion(t *testing.T) {
	home := t.TempDir()
	makeBareRepo(t, filepath.Join(home, "example.git"))

	got, err := Resolve("~/example", home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "example.git"), got)
}

func TestResolveNotFound(t *testing.T) {
	home := t.TempDir()
	_, err := Resolve("nope", home)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenRejectsMissingDir(t *testing.T) {
	err := Open(filepath.Join(t.TempDir(), "missing.git"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenRejectsNonGitDir(t *testing.T) {
	dir := t.TempDir()
	err := Open(dir)
	require.Error(t, err)
}
