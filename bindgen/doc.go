// Package bindgen generates a cgo interface to a subset of the DPDK C API.
//
// A [Translator] parses C headers into a [SymbolTable]. [Generate] applies a
// symbols.Policy to the table and writes a Go source file which exposes the
// selected declarations: type aliases, constants, variable pointers and
// wrapper functions with Go scalar types. The cgo preamble of the file
// carries the include paths and compile flags of the toolchain together
// with the text of the wrapper header.
//
// [ClangTranslator] is the default Translator. It relies on clang's JSON
// AST dump and its preprocessor.
package bindgen
