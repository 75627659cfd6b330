// Package dpdkgen generates cgo bindings for DPDK.
//
// A run locates DPDK on the host, decides which declarations of its C API
// are exposed, translates them into a cgo interface file, writes the
// directives needed to link against DPDK and compiles the functions DPDK
// only provides as static inline code into an object file the Go linker
// picks up automatically.
//
// The artifacts of a run are written to a single output directory:
//
//	<stem>_<goos>.go                    cgo interface
//	<stem>_link_<goos>.go               #cgo LDFLAGS directives
//	<stem>_inlined_<goos>_<goarch>.syso compiled inline shim
//	<stem>_<goos>.go.d                  make dependencies, with MakeBase
//
// Run is usually invoked through the dpdk2go command from a go:generate
// directive:
//
//	//go:generate go run github.com/demikernel/dpdkgen/cmd/dpdk2go -output-dir .
//
// A run either produces all artifacts or none of them.
package dpdkgen
