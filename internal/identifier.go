package internal

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// Identifier turns a C style type, function or constant name into an
// exportable Go equivalent.
//
// A trailing underscore is kept, so that rte_pktmbuf_free_ and
// rte_pktmbuf_free map to different Go names.
func Identifier(str string) string {
	prev := rune(-1)
	id := strings.Map(func(r rune) rune {
		// See https://golang.org/ref/spec#Identifiers
		switch {
		case unicode.IsLetter(r):
			if prev == -1 {
				r = unicode.ToUpper(r)
			}

		case r == '_':
			switch {
			// The previous rune was deleted, or we are at the
			// beginning of the string.
			case prev == -1:
				fallthrough

			// The previous rune is a lower case letter or a digit.
			case unicode.IsDigit(prev) || (unicode.IsLetter(prev) && unicode.IsLower(prev)):
				// delete the current rune, and force the
				// next character to be uppercased.
				r = -1
			}

		case unicode.IsDigit(r):

		default:
			// Delete the current rune. prev is unchanged.
			return -1
		}

		prev = r
		return r
	}, str)

	if strings.HasSuffix(str, "_") && !strings.HasSuffix(id, "_") && id != "" {
		id += "_"
	}

	if id != "" && unicode.IsDigit(rune(id[0])) {
		id = "X" + id
	}
	return id
}

// ParamName turns a C parameter name into a Go identifier which doesn't
// clash with keywords or the names used by generated code.
func ParamName(str string, index int) string {
	if str == "" || !token.IsIdentifier(str) {
		return "arg" + strconv.Itoa(index)
	}

	switch {
	case token.IsKeyword(str):
		return str + "_"
	case str == "C" || str == "unsafe" || str == "_":
		return "arg" + strconv.Itoa(index)
	}
	return str
}
