package toolchain

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// LibDPDKPathEnv names the installation root of DPDK on Windows.
const LibDPDKPathEnv = "LIBDPDK_PATH"

// DefaultCompileFlags are needed to parse headers which use wide SIMD types.
var DefaultCompileFlags = []string{"-mavx"}

// WindowsLibraries are the libraries linked on Windows, in link order.
var WindowsLibraries = []string{
	"rte_cfgfile",
	"rte_hash",
	"rte_cmdline",
	"rte_pci",
	"rte_ethdev",
	"rte_meter",
	"rte_net",
	"rte_mbuf",
	"rte_mempool",
	"rte_rcu",
	"rte_ring",
	"rte_eal",
	"rte_telemetry",
	"rte_kvargs",
}

// EnvLocator derives the toolchain from an installation root stored in an
// environment variable.
type EnvLocator struct {
	// Env is used to read the variable. Defaults to the process environment.
	Env Environ
	// Var is the variable to read. Defaults to LibDPDKPathEnv.
	Var string
	// Libraries to link. Defaults to WindowsLibraries.
	Libraries []string
	Logger    *zap.Logger
}

var _ Locator = (*EnvLocator)(nil)

func (l *EnvLocator) Locate(ctx context.Context) (*Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := l.Var
	if name == "" {
		name = LibDPDKPathEnv
	}

	root, ok := l.Env.lookup(name)
	if !ok || root == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, name)
	}

	libs := l.Libraries
	if libs == nil {
		libs = WindowsLibraries
	}

	// The suffixes are concatenated as is, the root is not cleaned.
	desc := &Descriptor{
		IncludePaths:      []string{root + "/include"},
		LibrarySearchPath: root + "/lib",
		Libraries:         slices.Clone(libs),
		CompileFlags:      slices.Clone(DefaultCompileFlags),
		WatchedEnv:        []string{name},
	}

	logger(l.Logger).Debug("Located DPDK from environment",
		zap.String("variable", name),
		zap.String("root", root))

	return desc, nil
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
