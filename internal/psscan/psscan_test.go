package psscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsLineMatches(t *testing.T) {
	ps := "user  1234  0.0  0.1  git-deploy - /srv/app: Waiting for push notification\n" +
		"user  1235  0.0  0.1  bash\n"
	require.True(t, containsLine(ps, "git-deploy - /srv/app: Waiting"))
}

func TestContainsLineNoMatch(t *testing.T) {
	ps := "user  1235  0.0  0.1  bash\n"
	require.False(t, containsLine(ps, "git-deploy - /srv/app: Waiting"))
}

func TestContainsLineDifferentCwd(t *testing.T) {
	ps := "user  1234  0.0  0.1  git-deploy - /srv/other: Waiting for push notification\n"
	require.False(t, containsLine(ps, "git-deploy - /srv/app: Waiting"))
}
