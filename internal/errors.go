package internal

import (
	"fmt"
	"strings"
)

// ToolError is returned when an external tool such as pkg-config or clang
// fails. The diagnostic printed by the tool is kept verbatim.
type ToolError struct {
	// Name of the tool, as passed to exec.
	Tool string
	// The error returned by exec, usually an *exec.ExitError.
	Err error
	// Everything the tool wrote to stderr.
	Diagnostic string
}

// NewToolError creates a ToolError from a failed invocation and its stderr.
func NewToolError(tool string, err error, stderr []byte) *ToolError {
	return &ToolError{tool, err, string(stderr)}
}

func (te *ToolError) Error() string {
	detail := strings.TrimRight(te.Diagnostic, "\t\r\n ")
	if detail == "" {
		return fmt.Sprintf("%s: %s", te.Tool, te.Err)
	}

	// Single line diagnostics are appended, multi line ones go below
	// the summary so that they stay readable in build logs.
	if !strings.ContainsRune(detail, '\n') {
		return fmt.Sprintf("%s: %s: %s", te.Tool, te.Err, detail)
	}
	return fmt.Sprintf("%s: %s\n%s", te.Tool, te.Err, detail)
}

func (te *ToolError) Unwrap() error {
	return te.Err
}
