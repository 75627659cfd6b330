package bindgen

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Subset of the JSON emitted by clang -Xclang -ast-dump=json.

type astLoc struct {
	File         string  `json:"file"`
	SpellingLoc  *astLoc `json:"spellingLoc"`
	ExpansionLoc *astLoc `json:"expansionLoc"`
}

type astNode struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Loc   astLoc `json:"loc"`
	Range struct {
		Begin astLoc `json:"begin"`
		End   astLoc `json:"end"`
	} `json:"range"`
	IsImplicit bool `json:"isImplicit"`
	Type       struct {
		QualType string `json:"qualType"`
	} `json:"type"`
	StorageClass       string `json:"storageClass"`
	Variadic           bool   `json:"variadic"`
	TagUsed            string `json:"tagUsed"`
	CompleteDefinition bool   `json:"completeDefinition"`
	TLS                string `json:"tls"`
	// Text of a TextComment.
	Text string `json:"text"`
	// Parameter documented by a ParamCommandComment.
	Param string `json:"param"`
	// Declaration referenced by a type node.
	Decl *struct {
		ID string `json:"id"`
	} `json:"decl"`
	Inner []astNode `json:"inner"`
}

// fileTracker recovers the file of each node.
//
// clang only prints the file of a location if it differs from the
// previously printed location, so nodes must be visited in document order.
type fileTracker struct {
	current string
}

func (ft *fileTracker) loc(l *astLoc) {
	if l.SpellingLoc != nil || l.ExpansionLoc != nil {
		if l.SpellingLoc != nil {
			ft.loc(l.SpellingLoc)
		}
		if l.ExpansionLoc != nil {
			ft.loc(l.ExpansionLoc)
		}
		return
	}

	if l.File != "" {
		ft.current = l.File
	}
}

// node returns the file containing n.
func (ft *fileTracker) node(n *astNode) string {
	ft.loc(&n.Loc)
	file := ft.current
	ft.loc(&n.Range.Begin)
	ft.loc(&n.Range.End)
	for i := range n.Inner {
		ft.node(&n.Inner[i])
	}
	return file
}

type tableBuilder struct {
	table    SymbolTable
	files    fileTracker
	comments bool

	functions   map[string]int
	records     map[string]int
	typedefs    map[string]int
	enums       map[string]int
	variables   map[string]int
	anonRecords map[string][]Field
}

// decodeAST reads a translation unit dumped by clang.
//
// Only the top level declarations are held in memory at any one time, the
// dump of the DPDK headers runs into hundreds of megabytes.
func decodeAST(r io.Reader, comments bool) (*SymbolTable, error) {
	b := &tableBuilder{
		comments:    comments,
		functions:   make(map[string]int),
		records:     make(map[string]int),
		typedefs:    make(map[string]int),
		enums:       make(map[string]int),
		variables:   make(map[string]int),
		anonRecords: make(map[string][]Field),
	}

	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	foundInner := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read AST: %w", err)
		}

		if key, ok := tok.(string); !ok || key != "inner" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("read AST: %w", err)
			}
			continue
		}

		foundInner = true
		if err := expectDelim(dec, '['); err != nil {
			return nil, err
		}

		for dec.More() {
			var n astNode
			if err := dec.Decode(&n); err != nil {
				return nil, fmt.Errorf("read AST: %w", err)
			}
			b.add(&n)
		}

		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	if !foundInner {
		return nil, fmt.Errorf("read AST: translation unit has no declarations")
	}

	return &b.table, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read AST: %w", err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("read AST: expected %s, got %v", want, tok)
	}
	return nil
}

func (b *tableBuilder) add(n *astNode) {
	file := b.files.node(n)
	if n.IsImplicit {
		return
	}

	switch n.Kind {
	case "FunctionDecl":
		b.addFunction(n, file)
	case "RecordDecl":
		b.addRecord(n, file)
	case "EnumDecl":
		b.addEnum(n, file)
	case "TypedefDecl":
		b.addTypedef(n, file)
	case "VarDecl":
		b.addVariable(n, file)
	}
}

func (b *tableBuilder) addFunction(n *astNode, file string) {
	if i, ok := b.functions[n.Name]; ok {
		// Redeclaration, keep the first but pick up documentation and
		// attributes.
		fn := &b.table.Functions[i]
		if fn.Comment == "" {
			fn.Comment = b.comment(n)
		}
		fn.Unavailable = fn.Unavailable || unavailable(n)
		return
	}

	fn := Function{
		Name:        n.Name,
		Result:      resultType(n.Type.QualType),
		Variadic:    n.Variadic || strings.HasSuffix(n.Type.QualType, "...)"),
		Static:      n.StorageClass == "static",
		Unavailable: unavailable(n),
		Comment:     b.comment(n),
		File:        file,
	}

	for _, child := range n.Inner {
		if child.Kind == "ParmVarDecl" {
			fn.Params = append(fn.Params, Param{child.Name, child.Type.QualType})
		}
	}

	b.functions[n.Name] = len(b.table.Functions)
	b.table.Functions = append(b.table.Functions, fn)
}

func (b *tableBuilder) addRecord(n *astNode, file string) {
	fields := b.fields(n, file)
	if n.Name == "" {
		b.anonRecords[n.ID] = fields
		return
	}

	rec := Record{
		Name:     n.Name,
		Union:    n.TagUsed == "union",
		Complete: n.CompleteDefinition,
		Fields:   fields,
		File:     file,
	}

	key := rec.tag() + " " + rec.Name
	if i, ok := b.records[key]; ok {
		if rec.Complete && !b.table.Records[i].Complete {
			b.table.Records[i] = rec
		}
		return
	}

	b.records[key] = len(b.table.Records)
	b.table.Records = append(b.table.Records, rec)
}

// fields returns the fields of a record, flattening nested anonymous
// records. Named nested records are added to the table.
func (b *tableBuilder) fields(n *astNode, file string) []Field {
	var fields []Field
	for i := range n.Inner {
		child := &n.Inner[i]
		switch child.Kind {
		case "FieldDecl":
			fields = append(fields, Field{child.Name, child.Type.QualType})
		case "RecordDecl":
			if child.Name == "" {
				fields = append(fields, b.fields(child, file)...)
			} else {
				b.addRecord(child, file)
			}
		}
	}
	return fields
}

func (b *tableBuilder) addEnum(n *astNode, file string) {
	enum := Enum{Name: n.Name, File: file}
	for _, child := range n.Inner {
		if child.Kind == "EnumConstantDecl" {
			enum.Constants = append(enum.Constants, child.Name)
		}
	}

	if enum.Name != "" {
		if i, ok := b.enums[enum.Name]; ok {
			if len(b.table.Enums[i].Constants) == 0 {
				b.table.Enums[i] = enum
			}
			return
		}
		b.enums[enum.Name] = len(b.table.Enums)
	}

	b.table.Enums = append(b.table.Enums, enum)
}

func (b *tableBuilder) addTypedef(n *astNode, file string) {
	if _, ok := b.typedefs[n.Name]; ok {
		return
	}

	td := Typedef{Name: n.Name, Type: n.Type.QualType, File: file}
	if id := b.anonymousDecl(n.Inner); id != "" {
		td.Fields = b.anonRecords[id]
	}

	b.typedefs[n.Name] = len(b.table.Typedefs)
	b.table.Typedefs = append(b.table.Typedefs, td)
}

// anonymousDecl finds a reference to an anonymous record in type nodes.
func (b *tableBuilder) anonymousDecl(nodes []astNode) string {
	for i := range nodes {
		if d := nodes[i].Decl; d != nil {
			if _, ok := b.anonRecords[d.ID]; ok {
				return d.ID
			}
		}
		if id := b.anonymousDecl(nodes[i].Inner); id != "" {
			return id
		}
	}
	return ""
}

func (b *tableBuilder) addVariable(n *astNode, file string) {
	if n.StorageClass != "extern" {
		return
	}

	if _, ok := b.variables[n.Name]; ok {
		return
	}

	b.variables[n.Name] = len(b.table.Variables)
	b.table.Variables = append(b.table.Variables, Variable{
		Name:        n.Name,
		Type:        n.Type.QualType,
		ThreadLocal: n.TLS != "",
		File:        file,
	})
}

// Attributes which turn a call into a compile error. __rte_internal expands
// to error with gcc and to diagnose_if with clang.
var rejectingAttrs = map[string]bool{
	"ErrorAttr":       true,
	"DiagnoseIfAttr":  true,
	"UnavailableAttr": true,
}

func unavailable(n *astNode) bool {
	for _, child := range n.Inner {
		if rejectingAttrs[child.Kind] {
			return true
		}
	}
	return false
}

// comment extracts the documentation attached to a declaration.
func (b *tableBuilder) comment(n *astNode) string {
	if !b.comments {
		return ""
	}

	var paragraphs []string
	for _, child := range n.Inner {
		if child.Kind != "FullComment" {
			continue
		}

		for _, block := range child.Inner {
			var words []string
			collectText(&block, &words)
			if len(words) == 0 {
				continue
			}

			text := strings.Join(words, " ")
			if block.Kind == "ParamCommandComment" && block.Param != "" {
				text = block.Param + ": " + text
			}
			paragraphs = append(paragraphs, text)
		}
	}

	return strings.Join(paragraphs, "\n")
}

func collectText(n *astNode, words *[]string) {
	if n.Kind == "TextComment" {
		if text := strings.TrimSpace(n.Text); text != "" {
			*words = append(*words, text)
		}
	}
	for i := range n.Inner {
		collectText(&n.Inner[i], words)
	}
}

var attribute = regexp.MustCompile(`\s*__attribute__\(\(.*?\)\)`)

// resultType extracts the result from the spelling of a function type, for
// example "struct rte_mbuf *(struct rte_mempool *)".
func resultType(fn string) string {
	fn = strings.TrimSpace(attribute.ReplaceAllString(fn, ""))
	if !strings.HasSuffix(fn, ")") {
		return fn
	}

	depth := 0
	for i := len(fn) - 1; i >= 0; i-- {
		switch fn[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return strings.TrimSpace(fn[:i])
			}
		}
	}
	return fn
}
