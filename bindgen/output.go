package bindgen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"go/build/constraint"
	"io"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen/internal"
)

//go:embed output.tpl
var outputRaw string

var outputTemplate = template.Must(template.New("output").Parse(outputRaw))

type goDecl struct {
	Name  string
	Value string
}

type goFunc struct {
	Name    string
	Comment []string
	Params  string
	Result  string
	Body    string
}

type outputFile struct {
	Package     string
	Constraints constraint.Expr
	CFlags      []string
	Preamble    []string
	Unsafe      bool
	Types       []goDecl
	Constants   []goDecl
	Variables   []goDecl
	Functions   []goFunc
}

type writeArgs struct {
	Package     string
	Constraints constraint.Expr
	// Flags for the cgo preamble, unquoted.
	CFlags []string
	// Text of the wrapper header.
	Header   []byte
	GOOS     string
	Comments bool
}

// emitter turns a selection into Go declarations, checking that no two
// declarations share a Go name.
type emitter struct {
	strict   bool
	logger   *zap.Logger
	problems error
	names    map[string]string
}

func (e *emitter) fail(err error) {
	if e.strict {
		e.problems = multierr.Append(e.problems, err)
		return
	}
	e.logger.Debug("Skipping declaration", zap.Error(err))
}

// claim reserves a Go name for a C declaration.
func (e *emitter) claim(goName, cName string) bool {
	if other, ok := e.names[goName]; ok {
		e.fail(fmt.Errorf("%s and %s both map to Go name %s", other, cName, goName))
		return false
	}
	e.names[goName] = cName
	return true
}

func constantName(name string) string {
	if r := rune(name[0]); unicode.IsUpper(r) {
		return name
	}
	return internal.Identifier(name)
}

// emit builds the output file from a selection.
func emit(sel *selection, table *SymbolTable, args *writeArgs, blocked func(typeRef) bool, strict bool, logger *zap.Logger) (*outputFile, error) {
	e := &emitter{
		strict: strict,
		logger: logger,
		names:  make(map[string]string),
	}

	mapper := &typeMapper{
		goos:         args.GOOS,
		aliases:      make(map[typeRef]string),
		funcTypedefs: make(map[string]funcTypedef),
		// Blocked types never get an alias, passing them by value is the
		// only thing which doesn't work.
		blocked: blocked,
	}

	typedefs := make(map[string]*Typedef)
	for i := range table.Typedefs {
		td := &table.Typedefs[i]
		typedefs[td.Name] = td
		mapper.funcTypedefs[td.Name] = classifyTypedef(td.Type)
	}

	selected := make(map[typeRef]bool)
	for _, ref := range sel.types {
		selected[ref] = true
	}

	out := &outputFile{
		Package:     args.Package,
		Constraints: args.Constraints,
	}

	for _, flag := range args.CFlags {
		out.CFlags = append(out.CFlags, internal.QuoteArgument(flag))
	}

	for _, line := range strings.Split(strings.TrimRight(string(args.Header), "\n"), "\n") {
		out.Preamble = append(out.Preamble, strings.TrimRight(line, " \t\r"))
	}

	refs := sortedRefs(sel.types)
	for _, ref := range refs {
		if ref.Tag == "" {
			td := typedefs[ref.Name]
			if mapper.funcTypedefs[ref.Name] != notFunc {
				continue
			}

			// typedef struct foo foo;
			if target, ok := parseRef(parseCType(td.Type).base); ok && target.Name == ref.Name && target.Tag != "" && selected[target] {
				mapper.aliases[ref] = internal.Identifier(ref.Name)
				continue
			}
		}

		name := internal.Identifier(ref.Name)
		if !e.claim(name, ref.String()) {
			continue
		}

		mapper.aliases[ref] = name
		out.Types = append(out.Types, goDecl{name, ref.cgo()})
	}

	for _, c := range sortedStrings(sel.constants) {
		name := constantName(c)
		if e.claim(name, c) {
			out.Constants = append(out.Constants, goDecl{name, "C." + c})
		}
	}

	variables := append([]*Variable(nil), sel.variables...)
	sort.Slice(variables, func(i, j int) bool { return variables[i].Name < variables[j].Name })
	for _, v := range variables {
		name := internal.Identifier(v.Name)
		if e.claim(name, v.Name) {
			out.Variables = append(out.Variables, goDecl{name, "&C." + v.Name})
		}
	}

	functions := append([]*Function(nil), sel.functions...)
	sort.Slice(functions, func(i, j int) bool { return functions[i].Name < functions[j].Name })
	for _, fn := range functions {
		gf, err := wrapFunction(fn, mapper, args.Comments)
		if err != nil {
			e.fail(err)
			continue
		}

		if e.claim(gf.Name, fn.Name) {
			out.Functions = append(out.Functions, gf)
		}
	}

	out.Unsafe = mapper.usesUnsafe
	return out, e.problems
}

// wrapFunction generates a Go function calling fn.
func wrapFunction(fn *Function, mapper *typeMapper, comments bool) (goFunc, error) {
	gf := goFunc{Name: internal.Identifier(fn.Name)}

	var params, args []string
	for i, p := range fn.Params {
		conv, err := mapper.convert(p.Type)
		if err != nil {
			return goFunc{}, fmt.Errorf("function %s: parameter %d: %w", fn.Name, i, err)
		}
		if conv.Go == "" {
			return goFunc{}, fmt.Errorf("function %s: parameter %d: %w: void", fn.Name, i, errUnsupported)
		}

		name := internal.ParamName(p.Name, i)
		params = append(params, name+" "+conv.Go)
		args = append(args, fmt.Sprintf(conv.ToC, name))
	}

	result, err := mapper.convert(fn.Result)
	if err != nil {
		return goFunc{}, fmt.Errorf("function %s: result: %w", fn.Name, err)
	}

	call := fmt.Sprintf("C.%s(%s)", fn.Name, strings.Join(args, ", "))
	gf.Params = strings.Join(params, ", ")
	gf.Result = result.Go
	if result.Go == "" {
		gf.Body = call
	} else {
		gf.Body = "return " + fmt.Sprintf(result.FromC, call)
	}

	if comments && fn.Comment != "" {
		gf.Comment = strings.Split(fn.Comment, "\n")
	}

	return gf, nil
}

func sortedRefs(refs []typeRef) []typeRef {
	sorted := append([]typeRef(nil), refs...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := internal.Identifier(sorted[i].Name), internal.Identifier(sorted[j].Name)
		if a != b {
			return a < b
		}
		return sorted[i].String() < sorted[j].String()
	})
	return sorted
}

func sortedStrings(in []string) []string {
	sorted := append([]string(nil), in...)
	sort.Strings(sorted)
	return sorted
}

func writeOutput(out *outputFile, w io.Writer) error {
	if out.Package == "" {
		return errors.New("missing package name")
	}

	var buf bytes.Buffer
	if err := outputTemplate.Execute(&buf, out); err != nil {
		return fmt.Errorf("can't generate interface: %w", err)
	}

	return internal.WriteFormatted(buf.Bytes(), w)
}
