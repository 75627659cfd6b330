// Package shim compiles out of line copies of functions which DPDK only
// provides as static inline definitions in its headers.
//
// The result is a .syso object. The Go toolchain links .syso files in a
// package directory into every binary using the package.
package shim

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen/toolchain"
)

var (
	//go:embed inlined.c
	DefaultSource []byte
	//go:embed wrapper.h
	DefaultHeader []byte
)

const (
	// DefaultSourceName is the file name inlined.c expects next to itself.
	DefaultSourceName = "inlined.c"
	// DefaultHeaderName is included by DefaultSource.
	DefaultHeaderName = "wrapper.h"
)

// ErrCompilationFailed is returned when the compiler rejects the shim.
var ErrCompilationFailed = errors.New("shim compilation failed")

// Args for Build.
type Args struct {
	// Which compiler to use. Defaults to clang.
	CC string
	// Absolute input file name.
	Source string
	// Absolute output file name.
	Dest string
	// The same include paths as used to generate the interface.
	IncludePaths []string
	// Additional flags, passed after the defaults.
	Flags []string
	// Build position independent code.
	PIC    bool
	Runner toolchain.Runner
	Logger *zap.Logger
}

// Build compiles a C source file into an object file.
func Build(ctx context.Context, args Args) error {
	if args.Source == "" || args.Dest == "" {
		return errors.New("shim: source and destination are required")
	}

	cc := args.CC
	if cc == "" {
		cc = "clang"
	}

	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.CommandContext(ctx, cc, "-O3")
	if args.PIC {
		cmd.Args = append(cmd.Args, "-fPIC")
	}
	cmd.Args = append(cmd.Args,
		// Compile for the host, like the rest of DPDK.
		"-march=native",
		// Don't include the compiler version, keeps output stable.
		"-fno-ident",
	)
	for _, path := range args.IncludePaths {
		cmd.Args = append(cmd.Args, "-I"+path)
	}
	cmd.Args = append(cmd.Args, args.Flags...)
	cmd.Args = append(cmd.Args, "-c", args.Source, "-o", args.Dest)
	cmd.Dir = filepath.Dir(args.Source)

	logger.Debug("Compiling shim", zap.Strings("args", cmd.Args))

	if _, err := toolchain.Output(args.Runner, cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrCompilationFailed, err)
	}

	logger.Info("Compiled shim", zap.String("object", args.Dest))
	return nil
}
