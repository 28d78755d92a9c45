package deploy

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
)

// hostInOutput extracts a hostname from an SSH "POSSIBLE...NASTY" MITM
// warning, which names it in its "Host key for <host> has changed" line
// (a non-default port appears as "[host]:port").
var hostInOutput = regexp.MustCompile(`(?i)host key for \[?([a-zA-Z0-9.-]+)`)

// handleNasty implements the POSSIBLE...SOMEONE...DOING...NASTY
// pathology: warn, and if --fix-nasty was requested and a host name can
// be extracted, purge and re-establish that host's known_hosts entry,
// then unconditionally exit the loop (a trust decision for the operator
// to re-verify, not something to silently retry past).
func (d *Daemon) handleNasty(ctx context.Context, out string) outcome {
	d.log.Warnf("possible MITM warning from ssh:\n%s", out)

	if !d.opts.FixNasty {
		return outcome{exit: true, matched: "nasty"}
	}

	m := hostInOutput.FindStringSubmatch(out)
	if m == nil {
		d.log.Warnf("--fix-nasty set but no host name found in warning")
		return outcome{exit: true, matched: "nasty"}
	}
	host := m[1]

	if err := exec.CommandContext(ctx, "ssh-keygen", "-R", host).Run(); err != nil {
		d.log.Warnf("ssh-keygen -R %s: %v", host, err)
	}

	target := host
	if ips, err := net.LookupIP(host); err == nil {
		for _, ip := range ips {
			if ip.To4() != nil {
				target = ip.String()
				break
			}
		}
	}

	if err := rescanKnownHost(ctx, target); err != nil {
		d.log.Warnf("ssh-keyscan %s: %v", target, err)
	}

	return outcome{exit: true, matched: "nasty"}
}

func rescanKnownHost(ctx context.Context, host string) error {
	out, err := exec.CommandContext(ctx, "ssh-keyscan", host).Output()
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	knownHosts := filepath.Join(home, ".ssh", "known_hosts")

	f, err := os.OpenFile(knownHosts, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}
