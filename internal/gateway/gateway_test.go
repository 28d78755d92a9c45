package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAdvancedMode(t *testing.T) {
	req, err := Parse([]string{"-c", "git-upload-pack '/srv/repo.git'"}, func(string) string { return "" })
	require.NoError(t, err)
	require.Equal(t, "git-upload-pack", req.Op)
	require.Equal(t, "/srv/repo", req.RepoArg)
	require.Equal(t, PhaseRead, req.Phase)
	require.Nil(t, req.Env)
}

func TestParseStandardMode(t *testing.T) {
	env := map[string]string{"SSH_ORIGINAL_COMMAND": "git-receive-pack '/srv/repo.git'"}
	req, err := Parse([]string{"KEY=alice", "DEBUG=1"}, func(k string) string { return env[k] })
	require.NoError(t, err)
	require.Equal(t, "git-receive-pack", req.Op)
	require.Equal(t, PhaseWrite, req.Phase)
	require.Equal(t, "alice", req.Env["KEY"])
	require.Equal(t, "1", req.Env["DEBUG"])
}

func TestParseRejectsNonGitCommand(t *testing.T) {
	_, err := Parse([]string{"-c", "rm -rf /"}, func(string) string { return "" })
	require.ErrorIs(t, err, ErrNotGitCommand)
}

func TestParseStripsQuotesAndDotGit(t *testing.T) {
	req, err := Parse([]string{"-c", "git-upload-pack 'foo/bar.git'"}, func(string) string { return "" })
	require.NoError(t, err)
	require.Equal(t, "foo/bar", req.RepoArg)
}

func TestParseAdvancedModeRejectsExtraArgs(t *testing.T) {
	// "-c" followed by more than one token is not Advanced mode; it falls
	// through to Standard mode, which requires SSH_ORIGINAL_COMMAND.
	_, err := Parse([]string{"-c", "git-upload-pack '/srv/repo.git'", "extra"}, func(string) string { return "" })
	require.ErrorIs(t, err, ErrNotGitCommand)
}
