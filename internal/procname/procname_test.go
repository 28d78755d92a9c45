package procname

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitingFormat(t *testing.T) {
	require.Equal(t, "git-deploy - /srv/app: Waiting for push notification", Waiting("git-deploy", "/srv/app"))
}

func TestSetDoesNotError(t *testing.T) {
	require.NoError(t, Set(Waiting("git-deploy", "/srv/app")))
}
