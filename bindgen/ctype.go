package bindgen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/demikernel/dpdkgen/internal/platform"
)

var (
	errUnsupported    = errors.New("unsupported type")
	errBlockedByValue = errors.New("blocked type passed by value")
)

// typeRef names a C type which may have a declaration in the symbol table.
type typeRef struct {
	// "struct", "union", "enum" or empty for a typedef.
	Tag  string
	Name string
}

func (r typeRef) String() string {
	if r.Tag == "" {
		return r.Name
	}
	return r.Tag + " " + r.Name
}

// cgo returns the Go expression cgo uses for the type.
func (r typeRef) cgo() string {
	if r.Tag == "" {
		return "C." + r.Name
	}
	return "C." + r.Tag + "_" + r.Name
}

var anonymousType = regexp.MustCompile(`\((?:unnamed|anonymous)[^)]*\)`)

// cType is a C type spelling without qualifiers.
type cType struct {
	base      string
	pointers  int
	function  bool
	array     bool
	anonymous bool
}

var qualifiers = map[string]bool{
	"const":        true,
	"volatile":     true,
	"restrict":     true,
	"__restrict":   true,
	"__restrict__": true,
	"_Nonnull":     true,
	"_Nullable":    true,
}

func parseCType(spelling string) cType {
	var ct cType

	s := attribute.ReplaceAllString(spelling, "")
	if anonymousType.MatchString(s) {
		ct.anonymous = true
		s = anonymousType.ReplaceAllString(s, "")
	}

	if strings.ContainsAny(s, "()") {
		ct.function = true
		ct.base = strings.TrimSpace(s)
		return ct
	}

	if strings.ContainsAny(s, "[]") {
		ct.array = true
	}

	var words []string
	for _, tok := range strings.Fields(strings.ReplaceAll(s, "*", " * ")) {
		switch {
		case tok == "*":
			ct.pointers++
		case qualifiers[tok]:
		default:
			words = append(words, tok)
		}
	}

	ct.base = strings.Join(words, " ")
	if alias, ok := scalarAliases[ct.base]; ok {
		ct.base = alias
	}
	return ct
}

// isFunctionPointer is true for spellings like "int (*)(void *)".
func (ct cType) isFunctionPointer() bool {
	return ct.function && ct.pointers == 0 && strings.Count(ct.base, "(*)") == 1 && !strings.Contains(ct.base, "(**")
}

var scalarAliases = map[string]string{
	"unsigned":               "unsigned int",
	"signed":                 "int",
	"signed int":             "int",
	"short int":              "short",
	"signed short":           "short",
	"short unsigned int":     "unsigned short",
	"unsigned short int":     "unsigned short",
	"long int":               "long",
	"signed long":            "long",
	"long unsigned int":      "unsigned long",
	"unsigned long int":      "unsigned long",
	"long long int":          "long long",
	"signed long long":       "long long",
	"long long unsigned int": "unsigned long long",
	"unsigned long long int": "unsigned long long",
	"bool":                   "_Bool",
}

type scalar struct {
	goType string
	cgo    string
}

var scalars = map[string]scalar{
	"_Bool":              {"bool", "C.bool"},
	"char":               {"int8", "C.char"},
	"signed char":        {"int8", "C.schar"},
	"unsigned char":      {"uint8", "C.uchar"},
	"short":              {"int16", "C.short"},
	"unsigned short":     {"uint16", "C.ushort"},
	"int":                {"int32", "C.int"},
	"unsigned int":       {"uint32", "C.uint"},
	"long":               {"int64", "C.long"},
	"unsigned long":      {"uint64", "C.ulong"},
	"long long":          {"int64", "C.longlong"},
	"unsigned long long": {"uint64", "C.ulonglong"},
	"float":              {"float32", "C.float"},
	"double":             {"float64", "C.double"},
	"int8_t":             {"int8", "C.int8_t"},
	"int16_t":            {"int16", "C.int16_t"},
	"int32_t":            {"int32", "C.int32_t"},
	"int64_t":            {"int64", "C.int64_t"},
	"uint8_t":            {"uint8", "C.uint8_t"},
	"uint16_t":           {"uint16", "C.uint16_t"},
	"uint32_t":           {"uint32", "C.uint32_t"},
	"uint64_t":           {"uint64", "C.uint64_t"},
	"intptr_t":           {"int", "C.intptr_t"},
	"uintptr_t":          {"uintptr", "C.uintptr_t"},
	"size_t":             {"uint", "C.size_t"},
	"ssize_t":            {"int", "C.ssize_t"},
	"ptrdiff_t":          {"int", "C.ptrdiff_t"},
}

// scalarType looks up a scalar. long is 32 bits on Windows.
func scalarType(base, goos string) (scalar, bool) {
	sc, ok := scalars[base]
	if ok && goos == platform.Windows {
		switch base {
		case "long":
			sc.goType = "int32"
		case "unsigned long":
			sc.goType = "uint32"
		}
	}
	return sc, ok
}

var (
	typeToken = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|@`)

	notTypeNames = map[string]bool{
		"struct": true, "union": true, "enum": true,
		"signed": true, "unsigned": true, "short": true, "long": true,
		"int": true, "char": true, "float": true, "double": true,
		"void": true, "_Bool": true, "bool": true, "_Complex": true,
		"_Atomic": true, "__int128": true, "__int128_t": true, "__uint128_t": true,
		"__builtin_va_list": true,
	}
)

// typeRefs returns the named types a spelling depends on, in order of
// appearance and without duplicates. Scalars are not included.
func typeRefs(spelling string) []typeRef {
	s := attribute.ReplaceAllString(spelling, "")
	s = anonymousType.ReplaceAllString(s, "@")

	var refs []typeRef
	seen := make(map[typeRef]bool)
	add := func(ref typeRef) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	tokens := typeToken.FindAllString(s, -1)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "struct" || tok == "union" || tok == "enum":
			if i+1 < len(tokens) && tokens[i+1] != "@" {
				add(typeRef{tok, tokens[i+1]})
			}
			i++

		case tok == "@" || notTypeNames[tok] || qualifiers[tok]:

		default:
			if _, ok := scalars[tok]; !ok {
				add(typeRef{"", tok})
			}
		}
	}
	return refs
}

// parseRef turns the base of a cType into a reference.
func parseRef(base string) (typeRef, bool) {
	words := strings.Fields(base)
	switch {
	case len(words) == 2 && (words[0] == "struct" || words[0] == "union" || words[0] == "enum"):
		return typeRef{words[0], words[1]}, true
	case len(words) == 1 && !notTypeNames[words[0]]:
		return typeRef{"", words[0]}, true
	default:
		return typeRef{}, false
	}
}

type funcTypedef uint8

const (
	notFunc funcTypedef = iota
	// typedef void (cb_t)(void *);
	funcType
	// typedef void (*cb_t)(void *);
	funcPointer
)

func classifyTypedef(target string) funcTypedef {
	ct := parseCType(target)
	switch {
	case !ct.function:
		return notFunc
	case ct.isFunctionPointer():
		return funcPointer
	default:
		return funcType
	}
}

// conversion describes how a C type appears in a Go wrapper.
//
// ToC and FromC are format strings with a single verb for the expression
// to convert.
type conversion struct {
	// Go type, empty for void.
	Go    string
	ToC   string
	FromC string
}

var (
	asIs      = conversion{ToC: "%s", FromC: "%s"}
	opaquePtr = conversion{"unsafe.Pointer", "(*[0]byte)(%s)", "unsafe.Pointer(%s)"}
)

// typeMapper turns C types into Go types.
type typeMapper struct {
	goos string
	// Go names of the types which have an alias.
	aliases map[typeRef]string
	// Typedefs of functions and function pointers.
	funcTypedefs map[string]funcTypedef
	blocked      func(typeRef) bool
	usesUnsafe   bool
}

func (m *typeMapper) unsafePointer(c conversion) conversion {
	m.usesUnsafe = true
	return c
}

func (m *typeMapper) convert(spelling string) (conversion, error) {
	ct := parseCType(spelling)
	switch {
	case ct.isFunctionPointer():
		return m.unsafePointer(opaquePtr), nil
	case ct.function:
		return conversion{}, fmt.Errorf("%w: function type %q", errUnsupported, spelling)
	case ct.array:
		return conversion{}, fmt.Errorf("%w: array %q", errUnsupported, spelling)
	case ct.anonymous:
		return conversion{}, fmt.Errorf("%w: anonymous %q", errUnsupported, spelling)
	}

	stars := strings.Repeat("*", ct.pointers)

	if ct.base == "void" {
		if ct.pointers == 0 {
			return asIs, nil
		}
		return m.unsafePointer(conversion{stars[1:] + "unsafe.Pointer", "%s", "%s"}), nil
	}

	if sc, ok := scalarType(ct.base, m.goos); ok {
		if ct.pointers == 0 {
			return conversion{sc.goType, sc.cgo + "(%s)", sc.goType + "(%s)"}, nil
		}
		return conversion{stars + sc.cgo, "%s", "%s"}, nil
	}

	ref, ok := parseRef(ct.base)
	if !ok {
		return conversion{}, fmt.Errorf("%w: %q", errUnsupported, spelling)
	}

	if ref.Tag == "" {
		switch m.funcTypedefs[ref.Name] {
		case funcType:
			if ct.pointers == 1 {
				return m.unsafePointer(opaquePtr), nil
			}
			return conversion{}, fmt.Errorf("%w: function type %q", errUnsupported, spelling)
		case funcPointer:
			if ct.pointers == 0 {
				return m.unsafePointer(conversion{"unsafe.Pointer", ref.cgo() + "(%s)", "unsafe.Pointer(%s)"}), nil
			}
			return conversion{}, fmt.Errorf("%w: pointer to function pointer %q", errUnsupported, spelling)
		}
	}

	if m.blocked(ref) {
		if ct.pointers == 0 {
			return conversion{}, fmt.Errorf("%w: %s", errBlockedByValue, ref)
		}
		return m.opaque(ref, stars), nil
	}

	if alias, ok := m.aliases[ref]; ok {
		return conversion{stars + alias, "%s", "%s"}, nil
	}

	if ct.pointers == 0 {
		// Not selected, use the C type directly.
		return conversion{ref.cgo(), "%s", "%s"}, nil
	}
	return m.opaque(ref, stars), nil
}

// opaque hides a pointer to a type which has no alias behind
// unsafe.Pointer.
func (m *typeMapper) opaque(ref typeRef, stars string) conversion {
	return m.unsafePointer(conversion{
		"unsafe.Pointer",
		"(" + stars + ref.cgo() + ")(%s)",
		"unsafe.Pointer(%s)",
	})
}
