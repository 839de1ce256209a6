//go:build !windows

package crypto

import "golang.org/x/sys/unix"

func lockRegion(b []byte) error   { return unix.Mlock(b) }
func unlockRegion(b []byte) error { return unix.Munlock(b) }
