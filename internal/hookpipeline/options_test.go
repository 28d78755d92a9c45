package hookpipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	require.Equal(t, []string{"a", "b=c"}, ParseOptions("a\nb=c"))
	require.Nil(t, ParseOptions(""))
}

func TestExportEnv(t *testing.T) {
	env := ExportEnv([]string{"a", "b=c"})
	require.Equal(t, "2", env["GIT_OPTION_COUNT"])
	require.Equal(t, "a", env["GIT_OPTION_0"])
	require.Equal(t, "b=c", env["GIT_OPTION_1"])
}

func TestExportEnvEmpty(t *testing.T) {
	env := ExportEnv(nil)
	require.Equal(t, "0", env["GIT_OPTION_COUNT"])
}

func TestParseDebug(t *testing.T) {
	require.Equal(t, 0, ParseDebug([]string{"DEBUG=0"}))
	require.Equal(t, 0, ParseDebug([]string{"DEBUG=off"}))
	require.Equal(t, 0, ParseDebug([]string{"DEBUG="}))
	require.Equal(t, 0, ParseDebug(nil))
	require.Equal(t, 3, ParseDebug([]string{"DEBUG=3"}))
	require.Equal(t, 1, ParseDebug([]string{"DEBUG=verbose"}))
}
