package deploy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScrubArgvSpaceForm(t *testing.T) {
	argv := []string{"git-deploy", "--chdir", "../relative", "--branch", "main"}
	got := ScrubArgv(argv, "/srv/checkout/relative")
	require.Equal(t, []string{"git-deploy", "--chdir", "/srv/checkout/relative", "--branch", "main"}, got)
}

func TestScrubArgvEqualsForm(t *testing.T) {
	argv := []string{"git-deploy", "--chdir=../relative", "--branch", "main"}
	got := ScrubArgv(argv, "/srv/checkout/relative")
	require.Equal(t, []string{"git-deploy", "--chdir=/srv/checkout/relative", "--branch", "main"}, got)
}

func TestScrubArgvNoChdirIsNoop(t *testing.T) {
	argv := []string{"git-deploy", "--branch", "main"}
	got := ScrubArgv(argv, "/srv/checkout/relative")
	require.Equal(t, argv, got)
}

func TestScrubArgvEmptyAbsDirIsNoop(t *testing.T) {
	argv := []string{"git-deploy", "--chdir", "../relative"}
	got := ScrubArgv(argv, "")
	require.Equal(t, argv, got)
}

func TestScrubArgvDoesNotMutateInput(t *testing.T) {
	argv := []string{"git-deploy", "--chdir", "../relative"}
	_ = ScrubArgv(argv, "/abs")
	require.Equal(t, "../relative", argv[2])
}
