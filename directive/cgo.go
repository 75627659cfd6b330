package directive

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/demikernel/dpdkgen/internal"
)

// WriteCgo writes a Go source file for package pkg which passes the link
// directives to cgo.
//
// Rebuild triggers have no cgo equivalent and are rejected.
func WriteCgo(w io.Writer, pkg string, directives []Directive) error {
	if pkg == "" {
		return errors.New("missing package name")
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "// Code generated by dpdk2go; DO NOT EDIT.")
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "package %s\n\n", pkg)

	for _, d := range directives {
		var flag string
		switch d.Kind {
		case LinkSearch:
			flag = "-L" + d.Value
		case LinkLibrary:
			flag = "-l" + d.Value
		default:
			return fmt.Errorf("directive %s can't be expressed in cgo", d)
		}

		fmt.Fprintf(&buf, "// #cgo LDFLAGS: %s\n", internal.QuoteArgument(flag))
	}

	fmt.Fprintln(&buf, `import "C"`)

	return internal.WriteFormatted(buf.Bytes(), w)
}
