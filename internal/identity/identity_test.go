package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestFromEnvParsesSSHClient(t *testing.T) {
	now := time.Unix(1000, 0)
	env := fakeEnv(map[string]string{
		"SSH_CLIENT": "203.0.113.5 52341 22",
	})

	tup := FromEnv(env, "deadbeef", now)

	require.Equal(t, "deadbeef", tup.Key)
	require.Equal(t, "203.0.113.5", tup.ClientIP)
	require.Equal(t, "52341", tup.ClientPort)
	require.Equal(t, "22", tup.ServerPort)
	require.Equal(t, int64(1000), tup.ConnectedEpoch)
}

func TestFromEnvFallsBackToSSHConnection(t *testing.T) {
	env := fakeEnv(map[string]string{
		"SSH_CONNECTION": "203.0.113.5 52341 198.51.100.9 22",
	})

	tup := FromEnv(env, "", time.Unix(0, 0))

	require.Equal(t, Unknown, tup.Key)
	require.Equal(t, "203.0.113.5", tup.ClientIP)
	require.Equal(t, "198.51.100.9", tup.ServerIP)
}

func TestFromEnvNoSSHEnv(t *testing.T) {
	tup := FromEnv(fakeEnv(nil), "abc", time.Unix(0, 0))
	require.Equal(t, "abc", tup.Key)
	require.Empty(t, tup.ClientIP)
}

func TestHasSSHContext(t *testing.T) {
	require.True(t, HasSSHContext(fakeEnv(map[string]string{"SSH_CLIENT": "1.2.3.4 1 2"})))
	require.True(t, HasSSHContext(fakeEnv(map[string]string{"SSH_CONNECTION": "1.2.3.4 1 5.6.7.8 2"})))
	require.False(t, HasSSHContext(fakeEnv(nil)))
}

func TestTupleString(t *testing.T) {
	tup := Tuple{Key: "k", ClientIP: "1.2.3.4", ClientPort: "22", ConnectedEpoch: 42}
	require.Equal(t, "k@1.2.3.4:22 (connected 42)", tup.String())
}
