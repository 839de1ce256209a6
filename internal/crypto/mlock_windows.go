//go:build windows

package crypto

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func lockRegion(b []byte) error {
	return windows.VirtualLock(regionStart(b), uintptr(len(b)))
}

func unlockRegion(b []byte) error {
	return windows.VirtualUnlock(regionStart(b), uintptr(len(b)))
}

func regionStart(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
