package testutils

import (
	"fmt"
	"os"
	"os/exec"
	"testing"
)

// ClangBin returns the clang binary to test against, or skips the test if
// it isn't installed.
func ClangBin(tb testing.TB) string {
	tb.Helper()

	if testing.Short() {
		tb.Skip("Not compiling with -short")
	}

	// CI pins the oldest clang which dumps usable JSON ASTs.
	clang := "clang"
	if minVersion := os.Getenv("CI_MIN_CLANG_VERSION"); minVersion != "" {
		clang = fmt.Sprintf("clang-%s", minVersion)
	}

	if _, err := exec.LookPath(clang); err != nil {
		tb.Skip(clang, "is not installed")
	}

	tb.Log("Testing against", clang)
	return clang
}

// LibDPDK skips the test unless pkg-config knows about libdpdk on the host.
func LibDPDK(tb testing.TB) {
	tb.Helper()

	if testing.Short() {
		tb.Skip("Not querying pkg-config with -short")
	}

	if err := exec.Command("pkg-config", "--exists", "libdpdk").Run(); err != nil {
		tb.Skip("libdpdk is not installed:", err)
	}
}
