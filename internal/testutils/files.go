package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

// MustWriteFile writes contents to dir/name, creating intermediate
// directories.
func MustWriteFile(tb testing.TB, dir, name, contents string) string {
	tb.Helper()

	tmpFile := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(tmpFile), 0755); err != nil {
		tb.Fatal(err)
	}

	if err := os.WriteFile(tmpFile, []byte(contents), 0660); err != nil {
		tb.Fatal(err)
	}

	return tmpFile
}

// MustReadFile returns the contents of a file.
func MustReadFile(tb testing.TB, name string) []byte {
	tb.Helper()

	contents, err := os.ReadFile(name)
	if err != nil {
		tb.Fatal(err)
	}
	return contents
}
