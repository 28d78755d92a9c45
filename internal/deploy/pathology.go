package deploy

import (
	"context"
	"os"
	"regexp"
	"time"
)

// outcome tells the main loop what to do after matching the combined
// git output of one iteration against the pathology catalog.
type outcome struct {
	sleep   time.Duration
	exit    bool
	matched string // pathology label for metrics, "" if nothing matched
}

var (
	nastyPattern       = regexp.MustCompile(`POSSIBLE.*SOMEONE.*DOING.*NASTY`)
	divergedPattern    = regexp.MustCompile(`Your branch.*diverged`)
	unstagedPattern    = regexp.MustCompile(`You have unstaged changes`)
	lockExistsPattern  = regexp.MustCompile(`fatal: Unable to create '(.+)': File exists\.`)
	staleRebasePattern = regexp.MustCompile(`cannot create .*rebase-apply.*please rm -fr (\S*\.git/rebase-apply)`)
	upToDatePattern    = regexp.MustCompile(`Current branch.*is up to date`)

	// benignPatterns: if none of these appear, the output is treated as
	// an operator-actionable local error and the loop exits.
	benignPatterns = []*regexp.Regexp{
		regexp.MustCompile(`rewinding head to replay`),
		regexp.MustCompile(`fast-forward`),
		regexp.MustCompile(`but expected`),
		regexp.MustCompile(`Unpacking objects`),
		regexp.MustCompile(`Cannot rebase`),
		regexp.MustCompile(`ecent commit`),
	}
)

// classify matches combined output against the pathology catalog in
// priority order and returns the action the main loop should take.
// The --fix-nasty host cleanup and the ps-based peer check go through
// d's methods, so d must be non-nil for those pathologies.
func classify(ctx context.Context, out string, branch string, d *Daemon) outcome {
	switch {
	case nastyPattern.MatchString(out):
		return d.handleNasty(ctx, out)

	case divergedPattern.MatchString(out):
		if err := d.hardReset(ctx, branch); err != nil {
			d.log.Warnf("hard reset after diverged branch: %v", err)
		}
		if d.peerPresent(ctx) {
			return outcome{exit: true, matched: "diverged"}
		}
		return outcome{sleep: 60 * time.Second, matched: "diverged"}

	case unstagedPattern.MatchString(out):
		if d.peerPresent(ctx) {
			return outcome{exit: true, matched: "unstaged"}
		}
		return outcome{sleep: 10 * time.Second, matched: "unstaged"}

	case lockExistsPattern.MatchString(out):
		m := lockExistsPattern.FindStringSubmatch(out)
		if !d.gitRebaseRunning(ctx) {
			_ = os.Remove(m[1])
		}
		return outcome{sleep: 60 * time.Second, matched: "lock-collision"}

	case staleRebasePattern.MatchString(out):
		m := staleRebasePattern.FindStringSubmatch(out)
		if d.staleRebaseDir(m[1]) && !d.gitRebaseRunning(ctx) {
			_ = os.RemoveAll(m[1])
		}
		return outcome{sleep: 60 * time.Second, matched: "stale-rebase-apply"}

	case upToDatePattern.MatchString(out):
		return outcome{sleep: 5*time.Second + randomJitter(), matched: "up-to-date"}

	case !anyBenignPatternMatches(out):
		return outcome{exit: true, matched: "unrecognized"}

	default:
		return outcome{matched: ""}
	}
}

func anyBenignPatternMatches(out string) bool {
	for _, p := range benignPatterns {
		if p.MatchString(out) {
			return true
		}
	}
	return false
}

// staleRebaseDir reports whether dir's modification time is older than
// the one-hour staleness threshold.
func (d *Daemon) staleRebaseDir(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > time.Hour
}
