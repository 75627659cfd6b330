package toolchain

import "errors"

var (
	// ErrNotFound is returned when a required input such as an environment
	// variable is missing.
	ErrNotFound = errors.New("DPDK toolchain not found")
	// ErrQueryFailed is returned when the package metadata query could not
	// be executed or exited with a non-zero status.
	ErrQueryFailed = errors.New("toolchain query failed")
	// ErrQueryMalformed is returned when the package metadata query printed
	// something that isn't text.
	ErrQueryMalformed = errors.New("toolchain query returned malformed output")
)
