// Command git-proxy-reconcile is the standalone CLI for the proxy
// reconciler, invoked by a pre-*/post-* hook script when proxy.url
// is configured for the target repository.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gitrelay/gitrelay/internal/aclconfig"
	"github.com/gitrelay/gitrelay/internal/logging"
	"github.com/gitrelay/gitrelay/internal/proxy"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "git-proxy-reconcile: %v\n", err)
		// Always exit 0: the reconciler is advisory and must never block
		// the Git operation it was invoked alongside (spec.md §7).
	}
}

func run(ctx context.Context) error {
	var knownHosts, authUser string

	rootCmd := &cobra.Command{
		Use:           "git-proxy-reconcile <pre-read|pre-write|post-read|post-write>",
		Short:         "Reconcile a bare repository against its configured proxy remote",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reconcile(cmd.Context(), args[0], knownHosts, authUser)
		},
	}

	home, _ := os.UserHomeDir()
	defaultKnownHosts := filepath.Join(home, ".ssh", "known_hosts")

	rootCmd.Flags().StringVar(&knownHosts, "known-hosts", defaultKnownHosts, "known_hosts file used to verify the proxy remote's host key")
	rootCmd.Flags().StringVar(&authUser, "user", "git", "SSH user to authenticate as against the proxy remote")

	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func reconcile(ctx context.Context, phase, knownHosts, authUser string) error {
	gitDir := os.Getenv("GIT_DIR")
	if gitDir == "" {
		return fmt.Errorf("GIT_DIR not set")
	}

	log := logging.New("git-proxy-reconcile", os.Getenv("DEBUG") != "")
	defer log.Sync()

	cfg, err := aclconfig.Load(ctx, gitDir)
	if err != nil {
		log.Warnf("load acl config: %v", err)
		return nil
	}
	if cfg.ProxyURL == "" {
		return nil // nothing configured, nothing to do.
	}

	r := &proxy.Reconciler{
		GitDir:         gitDir,
		WorkDir:        gitDir + ".workingdir",
		ProxyURL:       cfg.ProxyURL,
		KnownHostsPath: knownHosts,
		AuthUser:       authUser,
	}

	return proxy.Reconcile(ctx, r, phase, log)
}
