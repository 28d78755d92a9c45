//go:build !unix

package main

// applyUmask has no equivalent outside unix.
func applyUmask(umask int) {}
