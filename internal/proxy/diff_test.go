package proxy

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/gitrelay/gitrelay/internal/gitwire"
)

func hash(s string) plumbing.Hash { return plumbing.NewHash(s) }

func TestComputeDiffAgreeing(t *testing.T) {
	here := gitwire.RefTipMap{"refs/heads/main": hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	there := gitwire.RefTipMap{"refs/heads/main": hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}

	require.True(t, listingsEqual(here, there))
	require.Empty(t, computeDiff(here, there))
}

func TestComputeDiffDivergent(t *testing.T) {
	here := gitwire.RefTipMap{
		"refs/heads/main":      hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		"refs/heads/only-here": hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
	}
	there := gitwire.RefTipMap{
		"refs/heads/main":       hash("cccccccccccccccccccccccccccccccccccccccc"),
		"refs/heads/only-there": hash("dddddddddddddddddddddddddddddddddddddddd"),
	}

	require.False(t, listingsEqual(here, there))
	diffs := computeDiff(here, there)
	require.Len(t, diffs, 3)

	names := make([]string, len(diffs))
	for i, d := range diffs {
		names[i] = d.Name
	}
	require.ElementsMatch(t, []string{"refs/heads/main", "refs/heads/only-here", "refs/heads/only-there"}, names)
}

func TestFormatListingSorted(t *testing.T) {
	m := gitwire.RefTipMap{
		"refs/heads/zzz": hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		"refs/heads/aaa": hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
	}
	out := string(formatListing(m))
	require.True(t, indexBefore(out, "refs/heads/aaa", "refs/heads/zzz"))
}

func indexBefore(s, a, b string) bool {
	ia, ib := indexOf(s, a), indexOf(s, b)
	return ia >= 0 && ib >= 0 && ia < ib
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestRefDiffShortName(t *testing.T) {
	d := RefDiff{Name: "refs/heads/main"}
	require.True(t, d.IsBranch())
	require.Equal(t, "main", d.ShortName())

	d2 := RefDiff{Name: "refs/tags/v1.0"}
	require.False(t, d2.IsBranch())
	require.Equal(t, "v1.0", d2.ShortName())
}
