package deployconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFileMissingIsZeroValue(t *testing.T) {
	root, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, &Root{}, root)
}

func TestParse(t *testing.T) {
	root, err := Parse([]byte("branch: main\nmax_delay: 3600\noptions:\n  - a\n  - b\n"))
	require.NoError(t, err)
	require.Equal(t, "main", root.Branch)
	require.Equal(t, 3600, root.MaxDelay)
	require.Equal(t, []string{"a", "b"}, root.Options)
}

func TestMergeCLIFlagsWin(t *testing.T) {
	base := &Root{Branch: "main", MaxDelay: 7200, Options: []string{"file-opt"}}
	override := &Root{Branch: "release", Options: []string{"cli-opt"}}

	merged := Merge(base, override)
	require.Equal(t, "release", merged.Branch)
	require.Equal(t, 7200, merged.MaxDelay)
	require.Equal(t, []string{"cli-opt"}, merged.Options)
}

func TestReflectSchemaProducesJSON(t *testing.T) {
	data, err := ReflectSchema()
	require.NoError(t, err)
	require.Contains(t, string(data), "branch")
}
