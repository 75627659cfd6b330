package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// envComment prefixes the comments which record environment variables in a
// depfile. It matches the text form of a rerun-if-env-changed directive.
const envComment = "# dpdk2go:rerun-if-env-changed="

// DepRule is a single make rule: Target depends on Prerequisites.
type DepRule struct {
	Target        string
	Prerequisites []string
}

// Depfile is a dependency file as written by cc -MD and read by make.
type Depfile struct {
	Rules []DepRule
	// Environment variables the rules also depend on. make can't express
	// them, so they are stored as comments.
	Env []string
}

// ReadDepfile parses a dependency file.
//
// Relative paths are resolved against baseDir. Escaped spaces, hashes and
// dollar signs are decoded the way make reads them.
func ReadDepfile(r io.Reader, baseDir string) (*Depfile, error) {
	abs := func(path string) string {
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(baseDir, path)
	}

	const maxLine = 1024 * 1024

	var df Depfile
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLine)
	var line strings.Builder
	for scanner.Scan() {
		buf := scanner.Text()
		if line.Len()+len(buf) > maxLine {
			return nil, errors.New("line too long")
		}

		if strings.HasSuffix(buf, `\`) {
			line.WriteString(buf[:len(buf)-1])
			line.WriteByte(' ')
			continue
		}
		line.WriteString(buf)
		logical := strings.TrimSpace(line.String())
		line.Reset()

		switch {
		case logical == "":
			continue

		case strings.HasPrefix(logical, envComment):
			df.Env = append(df.Env, strings.TrimPrefix(logical, envComment))
			continue

		case strings.HasPrefix(logical, "#"):
			continue
		}

		target, prereqs, err := splitRule(logical)
		if err != nil {
			return nil, err
		}

		targets := splitPaths(target)
		if len(targets) != 1 {
			return nil, fmt.Errorf("rule %q: expected a single target", logical)
		}

		rule := DepRule{Target: abs(targets[0])}
		for _, prereq := range splitPaths(prereqs) {
			rule.Prerequisites = append(rule.Prerequisites, abs(prereq))
		}
		df.Rules = append(df.Rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// The compiler always writes a rule for the main file.
	if len(df.Rules) == 0 {
		return nil, errors.New("empty dependency file")
	}
	return &df, nil
}

// splitRule splits "target: prereqs" at the first colon which isn't part
// of a Windows drive letter.
func splitRule(line string) (string, string, error) {
	off := 0
	for {
		i := strings.IndexByte(line[off:], ':')
		if i == -1 {
			return "", "", fmt.Errorf("invalid line without ':'")
		}
		i += off

		// C:\foo or C:/foo
		if i == off+1 && i+1 < len(line) && (line[i+1] == '\\' || line[i+1] == '/') {
			off = i + 1
			continue
		}

		return strings.TrimSpace(line[:i]), line[i+1:], nil
	}
}

// splitPaths splits a list of paths at white space which isn't escaped.
//
// Backslashes which don't escape anything are kept, they separate
// directories on Windows.
func splitPaths(list string) []string {
	var paths []string
	var path strings.Builder
	flush := func() {
		if path.Len() > 0 {
			paths = append(paths, path.String())
			path.Reset()
		}
	}

	for i := 0; i < len(list); i++ {
		c := list[i]
		next := byte(0)
		if i+1 < len(list) {
			next = list[i+1]
		}

		switch {
		case c == '\\' && (next == ' ' || next == '#'):
			path.WriteByte(next)
			i++
		case c == '$' && next == '$':
			path.WriteByte('$')
			i++
		case c == ' ' || c == '\t':
			flush()
		default:
			path.WriteByte(c)
		}
	}
	flush()

	return paths
}

var pathEscaper = strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")

// Write writes the depfile with all paths relative to baseDir.
//
// Environment variables come first, one comment per variable.
func (df *Depfile) Write(w io.Writer, baseDir string) error {
	rel := func(path string) (string, error) {
		path, err := filepath.Rel(baseDir, path)
		if err != nil {
			return "", err
		}
		return pathEscaper.Replace(filepath.ToSlash(path)), nil
	}

	var out strings.Builder
	for _, name := range df.Env {
		if strings.ContainsAny(name, "\r\n") {
			return fmt.Errorf("environment variable %q: contains a line break", name)
		}
		out.WriteString(envComment + name + "\n")
	}

	for _, rule := range df.Rules {
		target, err := rel(rule.Target)
		if err != nil {
			return err
		}

		out.WriteString(target + ":")
		for _, prereq := range rule.Prerequisites {
			prereq, err := rel(prereq)
			if err != nil {
				return err
			}
			out.WriteString(" \\\n " + prereq)
		}
		out.WriteString("\n\n")
	}

	_, err := io.WriteString(w, out.String())
	return err
}

// Prerequisites returns the prerequisites of all rules in order of
// appearance, without duplicates.
func (df *Depfile) Prerequisites() []string {
	seen := make(map[string]struct{})
	var result []string
	for _, rule := range df.Rules {
		for _, p := range rule.Prerequisites {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			result = append(result, p)
		}
	}
	return result
}
