package internal

import (
	"errors"
	"strings"
)

// SplitArguments splits a string into a list of arguments the way a POSIX
// shell would, without expanding variables.
//
// Both single and double quotes are supported. A backslash escapes the
// following character outside of single quotes.
func SplitArguments(in string) ([]string, error) {
	var (
		result  []string
		builder strings.Builder
		escaped bool
		delim   = ' '
		// Distinguishes "" (an empty argument) from no argument at all.
		quoted bool
	)

	for _, r := range strings.TrimSpace(in) {
		if escaped {
			builder.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if delim == '\'' {
				builder.WriteRune(r)
				continue
			}
			escaped = true

		case '"', '\'':
			switch delim {
			case ' ':
				delim = r
				quoted = true
			case r:
				delim = ' '
			default:
				builder.WriteRune(r)
			}

		case ' ', '\t', '\n':
			if delim != ' ' {
				builder.WriteRune(r)
				continue
			}

			if builder.Len() > 0 || quoted {
				result = append(result, builder.String())
				builder.Reset()
				quoted = false
			}

		default:
			builder.WriteRune(r)
		}
	}

	if delim != ' ' {
		return nil, errors.New("unterminated quoted argument")
	}

	if escaped {
		return nil, errors.New("unfinished escape")
	}

	// Add the last argument
	if builder.Len() > 0 || quoted {
		result = append(result, builder.String())
	}

	return result, nil
}

// QuoteArgument is the inverse of SplitArguments for a single argument.
//
// The result is also understood by cgo, which applies the same rules to
// #cgo directives.
func QuoteArgument(arg string) string {
	if arg == "" {
		return `""`
	}

	if !strings.ContainsAny(arg, " \t\n\"'\\") {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
