package deploy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCurrentBranchLineNormal(t *testing.T) {
	out := "* main\n  remotes/origin/main\n"
	name, hash, detached := parseCurrentBranchLine(out)
	require.Equal(t, "main", name)
	require.Empty(t, hash)
	require.False(t, detached)
}

func TestParseCurrentBranchLineDetached(t *testing.T) {
	out := "* (HEAD detached at a1b2c3d)\n  main\n"
	name, hash, detached := parseCurrentBranchLine(out)
	require.Empty(t, name)
	require.Equal(t, "a1b2c3d", hash)
	require.True(t, detached)
}

func TestFirstIndentedRef(t *testing.T) {
	out := "* (HEAD detached at a1b2c3d)\n  main\n  remotes/origin/HEAD -> origin/main\n  remotes/origin/main\n"
	require.Equal(t, "main", firstIndentedRef(out))
}

func TestFirstIndentedRefSkipsRemotesPrefix(t *testing.T) {
	out := "* (HEAD detached at a1b2c3d)\n  remotes/origin/release\n"
	require.Equal(t, "origin/release", firstIndentedRef(out))
}
