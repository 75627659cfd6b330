package directive

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/demikernel/dpdkgen/internal"
)

// Triggers is the ordered set of files and environment variables which
// cause the generator to be re-run when they change.
//
// The zero value is ready to use. Triggers only grow.
type Triggers struct {
	seen       map[Directive]struct{}
	directives []Directive
}

func (t *Triggers) add(kind Kind, values []string) {
	if t.seen == nil {
		t.seen = make(map[Directive]struct{})
	}

	for _, v := range values {
		d := Directive{kind, v}
		if _, ok := t.seen[d]; ok || v == "" {
			continue
		}
		t.seen[d] = struct{}{}
		t.directives = append(t.directives, d)
	}
}

// AddFiles registers files. Relative paths are made absolute.
func (t *Triggers) AddFiles(paths ...string) error {
	abs := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}

		path, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("rebuild trigger: %w", err)
		}
		abs = append(abs, path)
	}

	t.add(RerunIfChanged, abs)
	return nil
}

// AddEnv registers environment variables.
func (t *Triggers) AddEnv(names ...string) {
	t.add(RerunIfEnvChanged, names)
}

// Directives returns all triggers in the order they were first added.
func (t *Triggers) Directives() []Directive {
	return append([]Directive(nil), t.directives...)
}

func (t *Triggers) values(kind Kind) []string {
	var values []string
	for _, d := range t.directives {
		if d.Kind == kind {
			values = append(values, d.Value)
		}
	}
	return values
}

// Files returns the files in the order they were first added.
func (t *Triggers) Files() []string {
	return t.values(RerunIfChanged)
}

// Env returns the environment variables in the order they were first added.
func (t *Triggers) Env() []string {
	return t.values(RerunIfEnvChanged)
}

// WriteDepfile writes a make rule stating that target depends on all files
// in t. All paths are relative to baseDir.
//
// make has no notion of environment variables, they are listed as comments.
func WriteDepfile(w io.Writer, baseDir, target string, t *Triggers) error {
	df := internal.Depfile{
		Rules: []internal.DepRule{{Target: target, Prerequisites: t.Files()}},
		Env:   t.Env(),
	}
	return df.Write(w, baseDir)
}
