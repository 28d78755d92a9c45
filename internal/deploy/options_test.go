package deploy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestXModifiersEmpty(t *testing.T) {
	require.Equal(t, "", Options{}.XModifiers())
	require.Equal(t, "", Options{}.GitSSHCommand())
}

func TestXModifiersWithPushOpts(t *testing.T) {
	o := Options{PushOpts: []string{"a=1", "b=2"}}
	require.Equal(t, "a=1\nb=2", o.XModifiers())
	require.Equal(t, "ssh -o SendEnv=XMODIFIERS", o.GitSSHCommand())
}

func TestXModifiersPrependsDeployPatience(t *testing.T) {
	o := Options{PushOpts: []string{"a=1"}, MaxDelay: 30 * time.Second}
	require.Equal(t, "deploy_patience=30\na=1", o.XModifiers())
}
