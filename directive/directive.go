// Package directive turns the findings of the toolchain locator into
// instructions for the build system.
//
// Link directives end up in a cgo file with one #cgo LDFLAGS line each.
// Rebuild triggers are collected while the generator runs and are written
// as a make compatible dependency file at the end of a successful run.
package directive

import (
	"fmt"
	"io"

	"github.com/demikernel/dpdkgen/toolchain"
)

//go:generate go tool stringer -output kind_string.go -type=Kind -linecomment

// Kind of a directive.
type Kind uint8

const (
	// LinkSearch adds a library search directory.
	LinkSearch Kind = iota // link-search
	// LinkLibrary requires a dynamic library.
	LinkLibrary // link-lib
	// RerunIfChanged marks a file as a rebuild trigger.
	RerunIfChanged // rerun-if-changed
	// RerunIfEnvChanged marks an environment variable as a rebuild trigger.
	RerunIfEnvChanged // rerun-if-env-changed
)

// Directive is a single instruction to the build system.
type Directive struct {
	Kind  Kind
	Value string
}

// String returns the directive in the line format used by WriteText.
func (d Directive) String() string {
	return fmt.Sprintf("dpdk2go:%s=%s", d.Kind, d.Value)
}

// Link returns the directives needed to link against the libraries in desc.
//
// The search directory comes first if there is one, followed by one
// LinkLibrary directive per library in descriptor order. Repeated
// libraries are repeated in the output.
func Link(desc *toolchain.Descriptor) []Directive {
	var directives []Directive
	if desc.LibrarySearchPath != "" {
		directives = append(directives, Directive{LinkSearch, desc.LibrarySearchPath})
	}

	for _, lib := range desc.Libraries {
		directives = append(directives, Directive{LinkLibrary, lib})
	}

	return directives
}

// WriteText writes one directive per line.
func WriteText(w io.Writer, directives []Directive) error {
	for _, d := range directives {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}
