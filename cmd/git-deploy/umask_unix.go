//go:build unix

package main

import "syscall"

func applyUmask(umask int) {
	syscall.Umask(umask)
}
