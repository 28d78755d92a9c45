// Package deploy implements the client-side deploy daemon: a long-lived
// pull/rebase/build loop, keyed off push notifications, that recovers
// from a catalogued set of Git working-tree pathologies.
package deploy

import (
	"strconv"
	"strings"
	"time"
)

// DefaultMaxDelay is the fallback --max-delay, in seconds.
const DefaultMaxDelay = 7200 * time.Second

// Options holds the side-effect-free argument state for one deploy
// daemon invocation, built from CLI flags merged with an optional
// config file (see internal/deployconfig).
type Options struct {
	ChDir      string
	Branch     string
	Umask      int
	PushOpts   []string // joined into XMODIFIERS, in order
	BuildCmd   string
	FixNasty   bool
	Background bool
	MaxDelay   time.Duration
}

// XModifiers renders PushOpts (with deploy_patience prepended when
// MaxDelay is set) into the newline-separated transport value carried
// over SSH via SendEnv=XMODIFIERS.
func (o Options) XModifiers() string {
	opts := o.PushOpts
	if o.MaxDelay > 0 {
		opts = append([]string{"deploy_patience=" + strconv.Itoa(int(o.MaxDelay.Seconds()))}, opts...)
	}
	if len(opts) == 0 {
		return ""
	}
	return strings.Join(opts, "\n")
}

// GitSSHCommand renders the GIT_SSH_COMMAND environment value that
// advertises XMODIFIERS to the SSH client, when there is anything to
// advertise.
func (o Options) GitSSHCommand() string {
	if o.XModifiers() == "" {
		return ""
	}
	return "ssh -o SendEnv=XMODIFIERS"
}
