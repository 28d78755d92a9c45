// Command git-deploy is the client-side deploy daemon CLI: a long-lived
// pull/rebase/build loop that reacts to push notifications and recovers
// from a catalogued set of Git working-tree pathologies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrelay/gitrelay/internal/deploy"
	"github.com/gitrelay/gitrelay/internal/deployconfig"
	"github.com/gitrelay/gitrelay/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "git-deploy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		branch     string
		chdir      string
		umask      int
		pushOpts   []string
		buildCmd   string
		fixNasty   bool
		background bool
		maxDelay   int
		configFile string
	)

	rootCmd := &cobra.Command{
		Use:           "git-deploy [branch]",
		Short:         "Run the client-side deploy daemon against the current Git working copy",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if branch != "" {
					return fmt.Errorf("branch given both positionally and via --branch")
				}
				branch = args[0]
			}
			return runDaemon(cmd.Context(), deploy.Options{
				ChDir:      chdir,
				Branch:     branch,
				Umask:      umask,
				PushOpts:   pushOpts,
				BuildCmd:   buildCmd,
				FixNasty:   fixNasty,
				Background: background,
				MaxDelay:   time.Duration(maxDelay) * time.Second,
			}, configFile)
		},
	}

	rootCmd.Flags().StringVar(&branch, "branch", "", "branch to deploy (mutually exclusive with the positional argument)")
	rootCmd.Flags().StringVar(&chdir, "chdir", "", "working directory to deploy in")
	rootCmd.Flags().IntVar(&umask, "umask", 0, "umask (octal) to apply before the main loop starts")
	rootCmd.Flags().StringArrayVarP(&pushOpts, "option", "O", nil, "push option to advertise via XMODIFIERS (repeatable)")
	rootCmd.Flags().StringVar(&buildCmd, "build", "", "build command to run under the advisory build lock after each iteration")
	rootCmd.Flags().BoolVar(&fixNasty, "fix-nasty", false, "attempt automatic known_hosts recovery on a possible MITM warning")
	rootCmd.Flags().BoolVar(&background, "background", false, "detach from the controlling terminal (unix only)")
	rootCmd.Flags().IntVar(&maxDelay, "max-delay", int(deploy.DefaultMaxDelay.Seconds()), "maximum seconds the server's push-notification hook should block")
	rootCmd.Flags().StringVar(&configFile, "config", "", "optional YAML config file providing defaults for the flags above")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func runDaemon(ctx context.Context, cliOpts deploy.Options, configFile string) error {
	opts := cliOpts
	if configFile != "" {
		fileRoot, err := deployconfig.ParseFile(configFile)
		if err != nil {
			return err
		}
		opts = mergeFromFile(cliOpts, fileRoot)
	}

	argv := os.Args
	if opts.ChDir != "" {
		dir := opts.ChDir
		if !filepath.IsAbs(dir) {
			dir, _ = filepath.Abs(dir)
		}
		if err := os.Chdir(dir); err != nil {
			return fmt.Errorf("chdir %s: %w", opts.ChDir, err)
		}
		// Scrub the stored argv so a relative --chdir doesn't re-resolve
		// against whatever cwd a later respawn happens to start from.
		argv = deploy.ScrubArgv(argv, dir)
	}
	if opts.Umask != 0 {
		applyUmask(opts.Umask)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	if cmd := opts.GitSSHCommand(); cmd != "" {
		os.Setenv("GIT_SSH_COMMAND", cmd)
		os.Setenv("XMODIFIERS", opts.XModifiers())
	}

	log := logging.New("git-deploy", os.Getenv("DEBUG") != "")
	defer log.Sync()

	d, err := deploy.New(ctx, opts, workDir, argv, log)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

// mergeFromFile overlays the deploy config file's values as defaults for
// any flag the operator did not set on the command line (CLI flags
// always win).
func mergeFromFile(cli deploy.Options, file *deployconfig.Root) deploy.Options {
	merged := cli
	if merged.Branch == "" {
		merged.Branch = file.Branch
	}
	if merged.BuildCmd == "" {
		merged.BuildCmd = file.Build
	}
	if !merged.FixNasty {
		merged.FixNasty = file.FixNasty
	}
	if !merged.Background {
		merged.Background = file.Background
	}
	if merged.MaxDelay == deploy.DefaultMaxDelay && file.MaxDelay != 0 {
		merged.MaxDelay = time.Duration(file.MaxDelay) * time.Second
	}
	if len(merged.PushOpts) == 0 {
		merged.PushOpts = file.Options
	}
	return merged
}
