package hookpipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitrelay/gitrelay/internal/identity"
	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func newFixtureRepo(t *testing.T) string {
	t.Helper()
	gitDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "hooks"), 0o755))
	writeScript(t, filepath.Join(gitDir, "hooks", "git-shell"), "exit 0")
	return gitDir
}

func TestRunPreHookVetoSkipsBackend(t *testing.T) {
	gitDir := newFixtureRepo(t)
	writeScript(t, filepath.Join(gitDir, "hooks", "pre-read"), "exit 7")

	inv := Invocation{
		GitDir:      gitDir,
		Op:          "git-upload-pack",
		Phase:       PhaseRead,
		OriginalCmd: "git-upload-pack '" + gitDir + "'",
		Identity:    identity.Tuple{Key: "bob", ConnectedEpoch: time.Now().Unix()},
	}

	log := logging.New("test", false)
	res, err := Run(context.Background(), inv, log)
	require.NoError(t, err)
	require.Equal(t, 7, res.ExitCode)
}

func TestRunBackendExitPropagates(t *testing.T) {
	gitDir := newFixtureRepo(t)
	writeScript(t, filepath.Join(gitDir, "hooks", "git-shell"), "exit 0")

	inv := Invocation{
		GitDir:      gitDir,
		Op:          "git-upload-pack",
		Phase:       PhaseRead,
		OriginalCmd: "git-upload-pack '" + gitDir + "'",
		Identity:    identity.Tuple{Key: "alice", ConnectedEpoch: time.Now().Unix()},
	}

	log := logging.New("test", false)
	res, err := Run(context.Background(), inv, log)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestRunCleansUpIPCDirWithoutDebug(t *testing.T) {
	gitDir := newFixtureRepo(t)

	inv := Invocation{
		GitDir:      gitDir,
		Op:          "git-upload-pack",
		Phase:       PhaseRead,
		OriginalCmd: "git-upload-pack '" + gitDir + "'",
		Identity:    identity.Tuple{Key: "alice"},
	}

	log := logging.New("test", false)
	res, err := Run(context.Background(), inv, log)
	require.NoError(t, err)

	_, err = os.Stat(res.IPCDir)
	require.True(t, os.IsNotExist(err))
}

func TestRunKeepsIPCDirWithDebug(t *testing.T) {
	gitDir := newFixtureRepo(t)

	inv := Invocation{
		GitDir:      gitDir,
		Op:          "git-upload-pack",
		Phase:       PhaseRead,
		OriginalCmd: "git-upload-pack '" + gitDir + "'",
		Identity:    identity.Tuple{Key: "alice"},
		Debug:       1,
	}

	log := logging.New("test", false)
	res, err := Run(context.Background(), inv, log)
	require.NoError(t, err)

	info, err := os.Stat(res.IPCDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(res.IPCDir, "ipc-record.json"))
	require.NoError(t, err, "ipc-record.json should be emitted before the IPC dir is cleaned up")
}
