// Program dpdk2go generates cgo bindings for DPDK and compiles the shim for
// DPDK's inline functions.
//
// Invoke it via go generate:
//
//	//go:generate go run github.com/demikernel/dpdkgen/cmd/dpdk2go -output-dir .
//
// See dpdk2go -help for the available options.
package main
