// Command git-ipguard is the standalone CLI for the IP restrictor,
// usable as a literal custom pre-read/pre-write hook script for
// operators who want the CIDR check enforced a second time (or
// differently) from the gateway's own built-in enforcement.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gitrelay/gitrelay/internal/aclconfig"
	"github.com/gitrelay/gitrelay/internal/ipguard"
)

func main() {
	os.Exit(run())
}

func run() int {
	gitDir := os.Getenv("GIT_DIR")
	if gitDir == "" {
		fmt.Fprintln(os.Stderr, "git-ipguard: GIT_DIR not set")
		return 1
	}

	clientIP := ipguard.ClientIPFromSSHClient(os.Getenv("SSH_CLIENT"))
	if clientIP == "" {
		clientIP = ipguard.ClientIPFromSSHClient(os.Getenv("SSH_CONNECTION"))
	}

	cfg, err := aclconfig.Load(context.Background(), gitDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "git-ipguard: load acl config: %v\n", err)
		return 1
	}
	if cfg.RestrictIP == "" {
		return 0
	}

	cidrs, err := ipguard.ParseCIDRList(cfg.RestrictIP, func(msg string) {
		fmt.Fprintln(os.Stderr, "git-ipguard: "+msg)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "git-ipguard: %v\n", err)
		return 1
	}

	if ipguard.Check(clientIP, cidrs) {
		return 0
	}

	fmt.Fprintln(os.Stderr, ipguard.BlockedMessage())
	return 1
}
