// Package identity constructs the connection-scoped identity tuple used
// throughout the access gateway and hook pipeline: who is calling, from
// where, and since when. It is built once per process and is immutable
// for the lifetime of the session.
package identity

import (
	"strconv"
	"strings"
	"time"
)

// Unknown is the KEY placeholder used when no identity was supplied.
const Unknown = "UNKNOWN"

// Tuple is the connection-scoped identity: {KEY, client_ip, client_port,
// server_ip, server_port, connected_epoch}.
type Tuple struct {
	Key            string
	ClientIP       string
	ClientPort     string
	ServerIP       string
	ServerPort     string
	ConnectedEpoch int64
}

// FromEnv builds a Tuple from the process environment at connection start.
// key is the KEY value resolved by the caller (forced-command argument or
// user-environment fallback); it defaults to Unknown when empty.
func FromEnv(getenv func(string) string, key string, now time.Time) Tuple {
	t := Tuple{
		Key:            key,
		ConnectedEpoch: now.Unix(),
	}
	if t.Key == "" {
		t.Key = Unknown
	}

	fields := splitSSHEnv(getenv("SSH_CLIENT"))
	if fields == nil {
		fields = splitSSHEnv(getenv("SSH_CONNECTION"))
	}

	if len(fields) > 0 {
		t.ClientIP = fields[0]
	}
	if len(fields) > 1 {
		t.ClientPort = fields[1]
	}
	if len(fields) == 3 {
		// SSH_CLIENT form: "ip port local_port", no server address.
		t.ServerPort = fields[2]
	} else if len(fields) > 3 {
		t.ServerIP = fields[2]
		t.ServerPort = fields[3]
	}

	return t
}

// splitSSHEnv splits SSH_CLIENT ("ip port local_port") or SSH_CONNECTION
// ("ip port local_ip local_port") on whitespace; returns nil when v is empty.
func splitSSHEnv(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

// HasSSHContext reports whether any SSH connection environment was
// present; used by the gateway to reject non-SSH invocations outright.
func HasSSHContext(getenv func(string) string) bool {
	return strings.TrimSpace(getenv("SSH_CLIENT")) != "" || strings.TrimSpace(getenv("SSH_CONNECTION")) != ""
}

// String renders the tuple the way structured logs key on it.
func (t Tuple) String() string {
	return t.Key + "@" + t.ClientIP + ":" + t.ClientPort + " (connected " + strconv.FormatInt(t.ConnectedEpoch, 10) + ")"
}
