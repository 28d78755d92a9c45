// Command git-server is the SSH forced-command (or login-shell) entry
// point: the access gateway component. It classifies the invocation,
// resolves the target repository, enforces IP and ACL checks, and hands
// off to the hook pipeline (or git-shell) with the current process image
// replaced by the handler.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gitrelay/gitrelay/internal/gateway"
	"github.com/gitrelay/gitrelay/internal/identity"
	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/gitrelay/gitrelay/internal/metrics"
)

// bundledGitServer is the well-known path of the hook-pipeline binary
// installed alongside this one, used as the fallback handler when a
// repository has not (yet) had hooks/git-server symlinked in by
// self-install.
var bundledGitServer = "/usr/local/libexec/gitrelay/git-hook-pipeline"

func main() {
	log := logging.New("git-server", os.Getenv("DEBUG") != "")
	defer log.Sync()

	os.Exit(run(log))
}

func run(log *logging.Logger) int {
	if !identity.HasSSHContext(os.Getenv) {
		metrics.GatewayRequests.WithLabelValues("none", "no_ssh").Inc()
		fmt.Fprintln(os.Stderr, "git-server: Only SSH allowed")
		return 1
	}

	req, err := gateway.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("unknown", "parse_error").Inc()
		fmt.Fprintf(os.Stderr, "git-server: %v\n", err)
		return 1
	}
	mode := string(req.Mode)

	key := req.Env["KEY"]
	if key == "" {
		key = os.Getenv("KEY")
	}
	id := identity.FromEnv(os.Getenv, key, time.Now())

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}

	ctx := context.Background()
	gitDir, err := gateway.Authorize(ctx, req, id, home)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(mode, "denied").Inc()
		fmt.Fprintf(os.Stderr, "git-server: %v\n", err)
		log.Warnf("denied %s: %v", id, err)
		return 1
	}

	handler, err := gateway.SelectHandler(gitDir, bundledGitServer)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(mode, "handler_error").Inc()
		fmt.Fprintf(os.Stderr, "git-server: %v\n", err)
		return 1
	}

	env := os.Environ()
	for k, v := range req.Env {
		env = append(env, k+"="+v)
	}

	// Recorded before Dispatch, since a successful dispatch replaces this
	// process image and never returns.
	metrics.GatewayRequests.WithLabelValues(mode, "ok").Inc()

	log.Infof("dispatch key=%s op=%s repo=%s handler=%s", id.Key, req.Op, gitDir, handler)
	if err := gateway.Dispatch(handler, req.Op, gitDir, env); err != nil {
		metrics.GatewayRequests.WithLabelValues(mode, "dispatch_error").Inc()
		fmt.Fprintf(os.Stderr, "git-server: %v\n", err)
		return 1
	}
	return 0
}
