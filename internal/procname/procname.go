// Package procname sets the process title so cooperating deploy daemons
// can recognize each other in `ps` output (spec.md §4.E/§9: the title
// convention is "<script> - <cwd>: Waiting...").
package procname

import "fmt"

// Waiting formats the conventional title for a deploy daemon idling
// between iterations.
func Waiting(script, cwd string) string {
	return fmt.Sprintf("%s - %s: Waiting for push notification", script, cwd)
}

// Set rewrites the process's visible command line (argv / PR_SET_NAME on
// unix) to title. Platform-specific implementations live in
// procname_unix.go and procname_other.go.
func Set(title string) error {
	return setTitle(title)
}
