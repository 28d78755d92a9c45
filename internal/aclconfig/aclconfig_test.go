package aclconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `acl.readers=alice,bob
acl.writers=alice
acl.deploy=carol
acl.restrictip=10.0.0.0/8
proxy.url=ssh://up.example/x.git
log.destination=stdout
remote.here.url=/srv/x.git
remote.there.url=ssh://up.example/x.git
`

func TestParse(t *testing.T) {
	c := Parse(sample)

	require.ElementsMatch(t, []string{"alice", "bob"}, c.Readers)
	require.ElementsMatch(t, []string{"alice"}, c.Writers)
	require.ElementsMatch(t, []string{"carol"}, c.Deployers)
	require.Equal(t, "10.0.0.0/8", c.RestrictIP)
	require.Equal(t, "ssh://up.example/x.git", c.ProxyURL)
	require.Equal(t, "stdout", c.Log["destination"])
	require.Equal(t, "/srv/x.git", c.RemoteHere)
}

func TestACLInvariants(t *testing.T) {
	c := Parse(sample)

	require.True(t, c.CanRead("alice"))
	require.True(t, c.CanWrite("alice"))
	require.True(t, c.CanRead("bob"))
	require.False(t, c.CanWrite("bob"))

	// deploy implies read
	require.True(t, c.CanRead("carol"))
	require.True(t, c.CanDeploy("carol"))
	require.False(t, c.CanWrite("carol"))

	require.False(t, c.CanRead("mallory"))
}

func TestHasWriters(t *testing.T) {
	require.True(t, Parse(sample).HasWriters())
	require.False(t, Parse("acl.readers=alice\n").HasWriters())
}
