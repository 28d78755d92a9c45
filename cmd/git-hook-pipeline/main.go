// Command git-hook-pipeline is the bundled "hooks/git-server": the hook
// pipeline component. Invoked by the access gateway as
// `-c "<op> '<GIT_DIR>'"`, it self-installs into stock repositories,
// threads option/debug transport, and runs the pre→git→post state
// machine around the Git backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gitrelay/gitrelay/internal/hookpipeline"
	"github.com/gitrelay/gitrelay/internal/identity"
	"github.com/gitrelay/gitrelay/internal/logging"
)

func main() {
	log := logging.New("git-hook-pipeline", os.Getenv("DEBUG") != "")
	defer log.Sync()

	// SIGPIPE causes immediate exit with status 1, per spec.md §4.C.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGPIPE)
	go func() {
		<-sig
		os.Exit(1)
	}()

	os.Exit(run(context.Background(), log))
}

func run(ctx context.Context, log *logging.Logger) int {
	op, gitDir, err := parseHandlerArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "git-hook-pipeline: %v\n", err)
		return 1
	}

	phase, err := classifyOp(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "git-hook-pipeline: %v\n", err)
		return 1
	}

	key := os.Getenv("KEY")
	id := identity.FromEnv(os.Getenv, key, time.Now())

	if selfPath, err := os.Executable(); err == nil {
		if err := hookpipeline.SelfInstall(ctx, gitDir, filepath.Dir(selfPath), os.Getpid(), id.Key); err != nil {
			log.Warnf("self-install: %v", err)
		}
	}

	opts := hookpipeline.ParseOptions(os.Getenv("XMODIFIERS"))
	if len(opts) > 0 && phase == hookpipeline.PhaseWrite {
		if err := hookpipeline.EnsurePushOptionsAdvertised(ctx); err != nil {
			log.Warnf("advertise push options: %v", err)
		}
	}
	debug := hookpipeline.ParseDebug(opts)

	originalCmd := op + " '" + gitDir + "'"
	if raw := os.Getenv("SSH_ORIGINAL_COMMAND"); raw != "" {
		originalCmd = raw
	}

	inv := hookpipeline.Invocation{
		GitDir:      gitDir,
		Op:          op,
		Phase:       phase,
		OriginalCmd: originalCmd,
		Identity:    id,
		Options:     opts,
		Debug:       debug,
	}

	result, err := hookpipeline.Run(ctx, inv, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "git-hook-pipeline: %v\n", err)
		return 1
	}
	return result.ExitCode
}

// parseHandlerArgs expects argv in the shape the gateway's Dispatch
// produces: {"-c", "<op> '<gitDir>'"}.
func parseHandlerArgs(argv []string) (op, gitDir string, err error) {
	if len(argv) != 2 || argv[0] != "-c" {
		return "", "", fmt.Errorf("expected -c \"<op> '<repo>'\"")
	}
	op, rest, ok := strings.Cut(argv[1], " ")
	if !ok {
		return "", "", fmt.Errorf("malformed handler command %q", argv[1])
	}
	return op, strings.Trim(rest, "'"), nil
}

func classifyOp(op string) (hookpipeline.Phase, error) {
	switch op {
	case "git-upload-pack", "git-upload-archive":
		return hookpipeline.PhaseRead, nil
	case "git-receive-pack":
		return hookpipeline.PhaseWrite, nil
	default:
		return "", fmt.Errorf("unrecognized operation %q", op)
	}
}
