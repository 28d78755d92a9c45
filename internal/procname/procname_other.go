//go:build !unix

package procname

// setTitle is a documented no-op on non-unix platforms: the `ps`-based
// peer-coordination scheme in spec.md §4.E/§9 is a unix-only behavior,
// so there is nothing to rewrite here.
func setTitle(title string) error {
	return nil
}
