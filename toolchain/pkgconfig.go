package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// DefaultPackage is the pkg-config package describing DPDK.
	DefaultPackage = "libdpdk"

	pkgConfigEnv     = "PKG_CONFIG"
	pkgConfigPathEnv = "PKG_CONFIG_PATH"
)

// PkgConfigLocator queries pkg-config for the flags needed to build against
// DPDK.
type PkgConfigLocator struct {
	Env Environ
	// Binary is the pkg-config executable. Defaults to $PKG_CONFIG, then
	// "pkg-config".
	Binary string
	// Package defaults to DefaultPackage.
	Package string
	Runner  Runner
	Logger  *zap.Logger
}

var _ Locator = (*PkgConfigLocator)(nil)

func (l *PkgConfigLocator) Locate(ctx context.Context) (*Descriptor, error) {
	cflags, err := l.query(ctx, "--cflags")
	if err != nil {
		return nil, err
	}

	libs, err := l.query(ctx, "--libs")
	if err != nil {
		return nil, err
	}

	desc := &Descriptor{
		IncludePaths: parseCompilerFlags(cflags),
		CompileFlags: slices.Clone(DefaultCompileFlags),
		WatchedEnv:   []string{pkgConfigEnv, pkgConfigPathEnv},
	}
	desc.LibrarySearchPath, desc.Libraries = parseLinkerFlags(libs)

	if len(desc.IncludePaths) == 0 {
		// Installed into a default system location, let the compiler find it.
		logger(l.Logger).Warn("pkg-config returned no include paths", zap.String("package", l.pkg()))
	}

	logger(l.Logger).Debug("Located DPDK using pkg-config",
		zap.Strings("include", desc.IncludePaths),
		zap.String("search", desc.LibrarySearchPath),
		zap.Strings("libraries", desc.Libraries))

	return desc, nil
}

func (l *PkgConfigLocator) pkg() string {
	if l.Package == "" {
		return DefaultPackage
	}
	return l.Package
}

func (l *PkgConfigLocator) binary() string {
	if l.Binary != "" {
		return l.Binary
	}
	if bin, ok := l.Env.lookup(pkgConfigEnv); ok && bin != "" {
		return bin
	}
	return "pkg-config"
}

func (l *PkgConfigLocator) query(ctx context.Context, mode string) (string, error) {
	cmd := exec.CommandContext(ctx, l.binary(), mode, l.pkg())
	if l.Env != nil {
		// Forward the search path from the injected environment.
		if path, ok := l.Env(pkgConfigPathEnv); ok {
			cmd.Env = append(os.Environ(), pkgConfigPathEnv+"="+path)
		}
	}

	logger(l.Logger).Debug("Querying pkg-config", zap.Strings("args", cmd.Args))

	out, err := Output(l.Runner, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: %s %s is not valid UTF-8", ErrQueryMalformed, cmd.Args[0], mode)
	}

	return string(out), nil
}

// parseCompilerFlags returns the include paths in the output of
// pkg-config --cflags. Duplicates are kept.
func parseCompilerFlags(out string) []string {
	var paths []string
	for _, tok := range strings.Fields(out) {
		if path, ok := strings.CutPrefix(tok, "-I"); ok && path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// parseLinkerFlags returns the search path and library names in the output
// of pkg-config --libs. The last -L wins.
func parseLinkerFlags(out string) (search string, libs []string) {
	for _, tok := range strings.Fields(out) {
		switch {
		case strings.HasPrefix(tok, "-L") && len(tok) > 2:
			search = tok[2:]
		case strings.HasPrefix(tok, "-l") && len(tok) > 2:
			libs = append(libs, tok[2:])
		}
	}
	return
}
