package symbols

import "fmt"

//go:generate go tool stringer -output kind_string.go -type=Kind,Disposition

// Kind of a C declaration.
type Kind uint8

const (
	// Type is a struct, union, enum or typedef.
	Type Kind = iota
	// Function is a function declaration.
	Function
	// Variable is a macro constant, an enumerator or a global variable.
	Variable
)

// Disposition of a rule.
type Disposition uint8

const (
	Allow Disposition = iota
	Block
)

// Rule controls the visibility of a single declaration.
type Rule struct {
	Kind        Kind
	Name        string
	Disposition Disposition
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %s", r.Disposition, r.Kind, r.Name)
}
