// Package ipguard implements the IP restrictor: comparing a caller's
// address against a CIDR allow-list taken from the target repository's
// `acl.restrictip` config.
package ipguard

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// blockedMessage is the denial text for a client IP that matches no
// configured CIDR (Check returns false).
var blockedMessage = "git-server: Your IP has been blocked."

// BlockedMessage is the text written to the client on denial, verbatim
// per spec.md §4.A.
func BlockedMessage() string { return blockedMessage }

// CIDR is a parsed allow-list entry.
type CIDR struct {
	net *net.IPNet
}

// ParseCIDRList parses a comma-separated list of CIDRs. Malformed
// entries are skipped and reported via warn; a list that is non-empty
// but contains zero parseable entries is returned as an error, since a
// restriction that can never match would silently lock everyone out.
func ParseCIDRList(raw string, warn func(string)) ([]CIDR, error) {
	var out []CIDR
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		c, err := parseCIDR(tok)
		if err != nil {
			if warn != nil {
				warn(fmt.Sprintf("skipping malformed CIDR %q: %v", tok, err))
			}
			continue
		}
		out = append(out, c)
	}

	if strings.TrimSpace(raw) != "" && len(out) == 0 {
		return nil, fmt.Errorf("acl.restrictip %q contains no parseable CIDR", raw)
	}
	return out, nil
}

// parseCIDR accepts "A.B.C.D[/N]" (default /32, N in [8,32]) or
// "hex:colon::form[/N]" (default /128, N in [8,128]).
func parseCIDR(tok string) (CIDR, error) {
	addrPart, bitsPart, hasBits := strings.Cut(tok, "/")

	ip := net.ParseIP(addrPart)
	if ip == nil {
		return CIDR{}, fmt.Errorf("invalid address %q", addrPart)
	}

	v4 := ip.To4()
	maxBits := 128
	minBits := 8
	bits := 128
	if v4 != nil {
		ip = v4
		maxBits = 32
		bits = 32
	}

	if hasBits {
		n, err := strconv.Atoi(bitsPart)
		if err != nil {
			return CIDR{}, fmt.Errorf("invalid prefix length %q", bitsPart)
		}
		bits = n
	}
	if bits < minBits || bits > maxBits {
		return CIDR{}, fmt.Errorf("prefix length %d out of range [%d,%d]", bits, minBits, maxBits)
	}

	mask := net.CIDRMask(bits, len(ip)*8)
	return CIDR{net: &net.IPNet{IP: ip.Mask(mask), Mask: mask}}, nil
}

// Matches reports whether ip falls within c.
func (c CIDR) Matches(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil && len(c.net.IP) == net.IPv4len {
		ip = v4
	}
	return c.net.Contains(ip)
}

// Check implements the restrictor's exit-code contract: true means allow.
// It allows when the list is empty, when clientIP fails to parse the
// caller is also allowed through (no SSH context / no restriction
// configured are the two "exit 0" cases spec.md §4.A names explicitly;
// an empty/unparseable client address is treated the same way since there
// is nothing to check against).
func Check(clientIP string, cidrs []CIDR) bool {
	if len(cidrs) == 0 {
		return true
	}
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil {
		return true
	}
	for _, c := range cidrs {
		if c.Matches(ip) {
			return true
		}
	}
	return false
}

// ClientIPFromSSHClient extracts the first whitespace-separated token
// (the client IP) from the SSH_CLIENT environment value.
func ClientIPFromSSHClient(sshClient string) string {
	fields := strings.Fields(sshClient)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
