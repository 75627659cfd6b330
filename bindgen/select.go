package bindgen

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen/symbols"
)

// selection is the part of a symbol table exposed to Go.
type selection struct {
	types     []typeRef
	functions []*Function
	// C names of macros and enumerators.
	constants []string
	variables []*Variable
}

type selector struct {
	policy *symbols.Policy
	// Only consulted without an allowlist: is a declaration from a header
	// which should be exposed.
	inScope func(file string) bool
	logger  *zap.Logger
	strict  bool
	// Problems with the policy, only collected in strict mode.
	problems error

	records       map[typeRef]*Record
	enums         map[string]*Enum
	typedefs      map[string]*Typedef
	functions     map[string]*Function
	variables     map[string]*Variable
	macros        map[string]*Macro
	enumConstants map[string]bool

	selectedTypes     map[typeRef]bool
	selectedConstants map[string]bool
	queue             []typeRef
	sel               selection
}

func newSelector(table *SymbolTable, policy *symbols.Policy, inScope func(string) bool, logger *zap.Logger) *selector {
	s := &selector{
		policy:            policy,
		inScope:           inScope,
		logger:            logger,
		strict:            policy.HasAllowlist(),
		records:           make(map[typeRef]*Record),
		enums:             make(map[string]*Enum),
		typedefs:          make(map[string]*Typedef),
		functions:         make(map[string]*Function),
		variables:         make(map[string]*Variable),
		macros:            make(map[string]*Macro),
		enumConstants:     make(map[string]bool),
		selectedTypes:     make(map[typeRef]bool),
		selectedConstants: make(map[string]bool),
	}

	for i := range table.Records {
		r := &table.Records[i]
		s.records[typeRef{r.tag(), r.Name}] = r
	}
	for i := range table.Enums {
		e := &table.Enums[i]
		if e.Name != "" {
			s.enums[e.Name] = e
		}
		for _, c := range e.Constants {
			s.enumConstants[c] = true
		}
	}
	for i := range table.Typedefs {
		s.typedefs[table.Typedefs[i].Name] = &table.Typedefs[i]
	}
	for i := range table.Functions {
		s.functions[table.Functions[i].Name] = &table.Functions[i]
	}
	for i := range table.Variables {
		s.variables[table.Variables[i].Name] = &table.Variables[i]
	}
	for i := range table.Macros {
		s.macros[table.Macros[i].Name] = &table.Macros[i]
	}

	return s
}

// fail records a problem. Without an allowlist problems only cause the
// declaration to be skipped.
func (s *selector) fail(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	if s.strict {
		s.problems = multierr.Append(s.problems, err)
		return
	}
	s.logger.Debug("Skipping declaration", zap.Error(err))
}

// skip ignores a function which can't be called from Go without making the
// policy invalid. Inline functions are reached through the shim instead.
func (s *selector) skip(fn *Function, reason string) {
	level := zap.DebugLevel
	if s.strict {
		level = zap.WarnLevel
	}

	if ce := s.logger.Check(level, "Skipping declaration"); ce != nil {
		ce.Write(zap.Error(fmt.Errorf("function %s: %s", fn.Name, reason)))
	}
}

func (s *selector) blockedType(ref typeRef) bool {
	return s.policy.Blocked(symbols.Type, ref.Name)
}

func (s *selector) exists(ref typeRef) bool {
	switch ref.Tag {
	case "struct", "union":
		return s.records[ref] != nil
	case "enum":
		return s.enums[ref.Name] != nil
	default:
		return s.typedefs[ref.Name] != nil
	}
}

// addType selects a type and queues its dependencies.
func (s *selector) addType(ref typeRef) {
	if s.selectedTypes[ref] || !s.exists(ref) {
		return
	}

	if s.blockedType(ref) {
		s.logger.Debug("Type is blocked", zap.Stringer("type", ref))
		return
	}

	// Reserved for the implementation, for example compiler intrinsics.
	if strings.HasPrefix(ref.Name, "__") {
		return
	}

	s.selectedTypes[ref] = true
	s.sel.types = append(s.sel.types, ref)

	switch ref.Tag {
	case "struct", "union":
		for _, f := range s.records[ref].Fields {
			s.queueDeps(f.Type)
		}

	case "enum":
		for _, c := range s.enums[ref.Name].Constants {
			s.addConstant(c)
		}

	default:
		td := s.typedefs[ref.Name]
		s.queueDeps(td.Type)
		for _, f := range td.Fields {
			s.queueDeps(f.Type)
		}
	}
}

func (s *selector) queueDeps(spelling string) {
	if s.policy.Recursive {
		s.queue = append(s.queue, typeRefs(spelling)...)
	}
}

func (s *selector) addFunction(fn *Function) {
	switch {
	case s.policy.Blocked(symbols.Function, fn.Name):
		return
	case fn.Variadic:
		s.fail("function %s: variadic functions can't be called from Go", fn.Name)
		return
	case fn.Static:
		s.skip(fn, "static functions have no linkable symbol")
		return
	case fn.Unavailable:
		s.skip(fn, "calls are rejected by the compiler")
		return
	}

	s.sel.functions = append(s.sel.functions, fn)
	s.queueDeps(fn.Result)
	for _, p := range fn.Params {
		s.queueDeps(p.Type)
	}
}

func (s *selector) addConstant(name string) {
	if s.selectedConstants[name] || s.policy.Blocked(symbols.Variable, name) {
		return
	}

	s.selectedConstants[name] = true
	s.sel.constants = append(s.sel.constants, name)
}

func (s *selector) addVariable(v *Variable) {
	switch {
	case s.policy.Blocked(symbols.Variable, v.Name):
		return
	case v.ThreadLocal:
		s.fail("variable %s: thread local variables can't be accessed from Go", v.Name)
		return
	}

	s.sel.variables = append(s.sel.variables, v)
	s.queueDeps(v.Type)
}

// allowType selects all types matching an allow rule. A name may refer to
// a struct, union, enum or typedef.
func (s *selector) allowType(name string) bool {
	found := false
	for _, tag := range []string{"struct", "union", "enum", ""} {
		if ref := (typeRef{tag, name}); s.exists(ref) {
			s.addType(ref)
			found = true
		}
	}
	return found
}

func (s *selector) allowVariable(name string) bool {
	if m := s.macros[name]; m != nil {
		if m.Value == "" {
			s.fail("macro %s has no value", name)
		} else {
			s.addConstant(name)
		}
		return true
	}

	if s.enumConstants[name] {
		s.addConstant(name)
		return true
	}

	if v := s.variables[name]; v != nil {
		s.addVariable(v)
		return true
	}

	return false
}

func (s *selector) fromAllowlist() {
	for _, rule := range s.policy.Rules {
		if rule.Disposition != symbols.Allow || s.policy.Blocked(rule.Kind, rule.Name) {
			continue
		}

		var found bool
		switch rule.Kind {
		case symbols.Type:
			found = s.allowType(rule.Name)
		case symbols.Function:
			if fn := s.functions[rule.Name]; fn != nil {
				s.addFunction(fn)
				found = true
			}
		case symbols.Variable:
			found = s.allowVariable(rule.Name)
		}

		if !found {
			s.logger.Warn("Allowed symbol not found in headers", zap.Stringer("rule", rule))
		}
	}
}

// fromScope selects everything in scope which isn't blocked.
func (s *selector) fromScope(table *SymbolTable) {
	for i := range table.Records {
		r := &table.Records[i]
		if s.inScope(r.File) {
			s.addType(typeRef{r.tag(), r.Name})
		}
	}

	for i := range table.Enums {
		e := &table.Enums[i]
		if !s.inScope(e.File) {
			continue
		}
		if e.Name != "" {
			s.addType(typeRef{"enum", e.Name})
			continue
		}
		for _, c := range e.Constants {
			s.addConstant(c)
		}
	}

	for i := range table.Typedefs {
		if td := &table.Typedefs[i]; s.inScope(td.File) {
			s.addType(typeRef{"", td.Name})
		}
	}

	for i := range table.Functions {
		if fn := &table.Functions[i]; s.inScope(fn.File) {
			s.addFunction(fn)
		}
	}

	for i := range table.Variables {
		if v := &table.Variables[i]; s.inScope(v.File) {
			s.addVariable(v)
		}
	}

	for i := range table.Macros {
		m := &table.Macros[i]
		if !s.inScope(m.File) {
			continue
		}
		if !isNumeric(m.Value) {
			s.logger.Debug("Skipping macro which isn't a number", zap.String("macro", m.Name))
			continue
		}
		s.addConstant(m.Name)
	}
}

// selectSymbols applies a policy to a symbol table.
func selectSymbols(table *SymbolTable, policy *symbols.Policy, inScope func(string) bool, logger *zap.Logger) (*selection, error) {
	s := newSelector(table, policy, inScope, logger)

	if s.strict {
		s.fromAllowlist()
	} else {
		s.fromScope(table)
	}

	for len(s.queue) > 0 {
		ref := s.queue[0]
		s.queue = s.queue[1:]
		s.addType(ref)
	}

	return &s.sel, s.problems
}

// includeScope returns a function which reports whether a file is the
// header itself or lives below one of the include paths.
func includeScope(header string, includePaths []string) func(string) bool {
	clean := func(path string) string {
		return filepath.ToSlash(filepath.Clean(path))
	}

	header = clean(header)
	var prefixes []string
	for _, path := range includePaths {
		prefixes = append(prefixes, strings.TrimSuffix(clean(path), "/")+"/")
	}

	return func(file string) bool {
		if file == "" {
			return false
		}

		file = clean(file)
		if file == header {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(file, prefix) {
				return true
			}
		}
		return false
	}
}
