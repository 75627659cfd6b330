package bindgen

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var lineMarker = regexp.MustCompile(`^# \d+ ("(?:[^"\\]|\\.)*")`)

// parseMacros extracts object-like macros from the output of clang -E -dD.
//
// Line markers are used to attribute each definition to a file. The order
// of first definition is kept, a later #undef removes a macro.
func parseMacros(r io.Reader) ([]Macro, error) {
	var (
		file   string
		order  []string
		macros = make(map[string]Macro)
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := lineMarker.FindStringSubmatch(line); m != nil {
			name, err := strconv.Unquote(m[1])
			if err != nil {
				return nil, fmt.Errorf("line marker %q: %w", line, err)
			}
			file = name
			continue
		}

		if name, ok := strings.CutPrefix(line, "#undef "); ok {
			delete(macros, strings.TrimSpace(name))
			continue
		}

		def, ok := strings.CutPrefix(line, "#define ")
		if !ok {
			continue
		}

		name, value, _ := strings.Cut(def, " ")
		if strings.ContainsRune(name, '(') {
			// Function-like.
			continue
		}

		if _, ok := macros[name]; !ok {
			order = append(order, name)
		}
		macros[name] = Macro{name, strings.TrimSpace(value), file}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var result []Macro
	seen := make(map[string]bool)
	for _, name := range order {
		m, ok := macros[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, m)
	}
	return result, nil
}

var numericLiteral = regexp.MustCompile(`^\(*-?(0[xX][0-9a-fA-F]+|[0-9]+(\.[0-9]*)?([eE][-+]?[0-9]+)?)[uUlLfF]*\)*$`)

// isNumeric returns true if a macro expands to a plain number.
func isNumeric(value string) bool {
	return numericLiteral.MatchString(strings.TrimSpace(value))
}
