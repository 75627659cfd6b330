package toolchain

import (
	"context"
	"slices"
)

// Descriptor describes how to compile and link against DPDK.
//
// A Descriptor is not modified after it has been returned by a Locator. Use
// WithFeatures or WithCompileFlags to derive a new one.
type Descriptor struct {
	// Directories searched for headers, in order. Entries may repeat.
	IncludePaths []string
	// Directory searched for libraries, empty if none was discovered.
	LibrarySearchPath string
	// Libraries to link dynamically, in order. Entries may repeat.
	Libraries []string
	// Additional flags needed to parse the headers.
	CompileFlags []string
	// Environment variables which influenced discovery.
	WatchedEnv []string
}

// Locator finds DPDK on the host.
type Locator interface {
	Locate(ctx context.Context) (*Descriptor, error)
}

func (d *Descriptor) copy() *Descriptor {
	return &Descriptor{
		slices.Clone(d.IncludePaths),
		d.LibrarySearchPath,
		slices.Clone(d.Libraries),
		slices.Clone(d.CompileFlags),
		slices.Clone(d.WatchedEnv),
	}
}

// WithFeatures returns a copy of the descriptor with the libraries of all
// features appended after the existing ones.
//
// Libraries are neither deduplicated nor reordered.
func (d *Descriptor) WithFeatures(features ...Feature) *Descriptor {
	cpy := d.copy()
	for _, f := range features {
		cpy.Libraries = append(cpy.Libraries, f.Libraries...)
	}
	return cpy
}

// WithCompileFlags returns a copy of the descriptor with additional compile
// flags.
func (d *Descriptor) WithCompileFlags(flags ...string) *Descriptor {
	cpy := d.copy()
	cpy.CompileFlags = append(cpy.CompileFlags, flags...)
	return cpy
}
