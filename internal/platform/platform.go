// Package platform describes the operating systems the generator knows how to
// locate DPDK on.
package platform

import (
	"fmt"
	"runtime"
)

const (
	Linux   = "linux"
	Windows = "windows"
)

// Native is the platform the generator runs on.
const Native = runtime.GOOS

// Check returns an error if goos isn't a supported platform.
func Check(goos string) error {
	switch goos {
	case Linux, Windows:
		return nil
	default:
		return fmt.Errorf("unsupported platform %q", goos)
	}
}

// PIC returns true if objects linked into Go binaries on goos must be
// position independent.
func PIC(goos string) bool {
	return goos != Windows
}
