package bindgen

import (
	"context"
	"errors"
)

// ErrGenerationFailed is returned when the headers can't be translated
// using the configured policy.
var ErrGenerationFailed = errors.New("generation failed")

// Request describes what to translate.
type Request struct {
	// Absolute path of the header to translate.
	Header string
	// Directories searched for includes, in order.
	IncludePaths []string
	// Additional compiler flags, like -mavx.
	Flags []string
	// Extract documentation comments.
	Comments bool
}

// Translator parses C headers.
type Translator interface {
	Translate(ctx context.Context, req Request) (*SymbolTable, error)
}

// SymbolTable holds the declarations found in a header and all the headers
// it includes.
//
// C type spellings are kept as printed by the translator, for example
// "const struct rte_mbuf *".
type SymbolTable struct {
	Functions []Function
	Records   []Record
	Typedefs  []Typedef
	Enums     []Enum
	Variables []Variable
	Macros    []Macro
	// Every file visited during translation.
	Headers []string
}

// Function is a function declaration.
type Function struct {
	Name     string
	Result   string
	Params   []Param
	Variadic bool
	// Static functions, including static inline ones, have no linkable
	// symbol.
	Static bool
	// Calls are rejected by the compiler. DPDK marks its internal API
	// this way.
	Unavailable bool
	Comment     string
	File        string
}

type Param struct {
	Name string
	Type string
}

// Record is a struct or union.
type Record struct {
	// Tag of the record, empty if it is anonymous.
	Name     string
	Union    bool
	Complete bool
	// Fields, including those of nested anonymous records.
	Fields []Field
	File   string
}

type Field struct {
	Name string
	Type string
}

// Typedef is a type definition.
type Typedef struct {
	Name string
	Type string
	// Fields of the anonymous record the typedef names, if any.
	Fields []Field
	File   string
}

// Enum is an enumeration. Anonymous enums only contribute constants.
type Enum struct {
	Name      string
	Constants []string
	File      string
}

// Variable is a global variable declared extern.
type Variable struct {
	Name string
	Type string
	// Thread local variables can't be accessed from Go.
	ThreadLocal bool
	File        string
}

// Macro is an object-like preprocessor definition.
type Macro struct {
	Name  string
	Value string
	File  string
}

func (r *Record) tag() string {
	if r.Union {
		return "union"
	}
	return "struct"
}
