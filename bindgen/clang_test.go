//go:build !windows

package bindgen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/demikernel/dpdkgen/internal"
	"github.com/demikernel/dpdkgen/internal/testutils"
	"github.com/demikernel/dpdkgen/symbols"
	"github.com/demikernel/dpdkgen/toolchain"
)

// fakeClang answers AST dumps and preprocessor runs with the fixtures in
// testdata.
func fakeClang(tb testing.TB, calls *[][]string) toolchain.RunnerFunc {
	return func(cmd *exec.Cmd) error {
		*calls = append(*calls, cmd.Args)

		after := func(flag string) string {
			i := slices.Index(cmd.Args, flag)
			qt.Assert(tb, qt.Not(qt.Equals(i, -1)), qt.Commentf("missing %s in %q", flag, cmd.Args))
			return cmd.Args[i+1]
		}

		switch {
		case slices.Contains(cmd.Args, "-ast-dump=json"):
			_, err := cmd.Stdout.Write(testutils.MustReadFile(tb, "testdata/ast.json"))
			return err

		case slices.Contains(cmd.Args, "-E"):
			if err := os.WriteFile(after("-o"), testutils.MustReadFile(tb, "testdata/macros.h"), 0644); err != nil {
				return err
			}
			return os.WriteFile(after("-MF"), testutils.MustReadFile(tb, "testdata/macros.d"), 0644)
		}

		return errors.New("unexpected invocation")
	}
}

func TestClangTranslator(t *testing.T) {
	var calls [][]string
	tmp := t.TempDir()
	ct := &ClangTranslator{
		Clang:   "/usr/bin/clang-18",
		Runner:  fakeClang(t, &calls),
		TempDir: tmp,
	}

	table, err := ct.Translate(context.Background(), Request{
		Header:       "/work/wrapper.h",
		IncludePaths: []string{"/opt/dpdk/include"},
		Flags:        []string{"-mavx"},
	})
	qt.Assert(t, qt.IsNil(err))

	qt.Assert(t, qt.HasLen(calls, 2))
	qt.Assert(t, qt.DeepEquals(calls[0], []string{
		"/usr/bin/clang-18", "-x", "c", "-I/opt/dpdk/include", "-mavx",
		"-fsyntax-only", "-Xclang", "-ast-dump=json", "/work/wrapper.h",
	}))
	qt.Assert(t, qt.DeepEquals(calls[1][:7], []string{
		"/usr/bin/clang-18", "-x", "c", "-I/opt/dpdk/include", "-mavx", "-E", "-dD",
	}))
	qt.Assert(t, qt.Equals(calls[1][len(calls[1])-1], "/work/wrapper.h"))

	qt.Assert(t, qt.HasLen(table.Functions, 4))
	qt.Assert(t, qt.HasLen(table.Macros, 11))
	qt.Assert(t, qt.DeepEquals(table.Headers, []string{
		"/work/wrapper.h",
		"/opt/dpdk/include/rte_mbuf.h",
		"/usr/include/stdint.h",
	}))

	// Comments weren't requested.
	qt.Assert(t, qt.Equals(table.Functions[0].Comment, ""))

	entries, err := os.ReadDir(tmp)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(entries, 0), qt.Commentf("temporary files are left behind"))
}

func TestClangTranslatorFailure(t *testing.T) {
	const diagnostic = "/work/wrapper.h:1:10: fatal error: 'rte_mbuf.h' file not found\n1 error generated.\n"

	ct := &ClangTranslator{
		Runner: toolchain.RunnerFunc(func(cmd *exec.Cmd) error {
			io.WriteString(cmd.Stderr, diagnostic)
			return errors.New("exit status 1")
		}),
		TempDir: t.TempDir(),
	}

	_, err := ct.Translate(context.Background(), Request{Header: "/work/wrapper.h"})
	qt.Assert(t, qt.IsNotNil(err))

	var te *internal.ToolError
	qt.Assert(t, qt.ErrorAs(err, &te))
	qt.Assert(t, qt.Equals(te.Tool, "clang"))
	qt.Assert(t, qt.Equals(te.Diagnostic, diagnostic))
}

func TestClangTranslatorMissingHeader(t *testing.T) {
	_, err := (&ClangTranslator{}).Translate(context.Background(), Request{})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestClangGenerate(t *testing.T) {
	clang := testutils.ClangBin(t)

	dir := t.TempDir()
	header := testutils.MustWriteFile(t, dir, "foo.h", `
#define FOO_MAX 16

struct bar { int x; };

struct foo {
	unsigned int a;
	struct bar *b;
};

enum color { RED, GREEN };

typedef unsigned long long foo_id_t;

/* Initialise a foo. */
int foo_init(struct foo *f, foo_id_t id);

static inline int foo_inline(void) { return 1; }
`)

	policy := &symbols.Policy{
		Rules: []symbols.Rule{
			{symbols.Function, "foo_init", symbols.Allow},
			{symbols.Variable, "FOO_MAX", symbols.Allow},
			{symbols.Type, "color", symbols.Allow},
		},
		Recursive: true,
	}

	var out bytes.Buffer
	res, err := Generate(context.Background(), GenerateArgs{
		Package:    "foo",
		Header:     header,
		Descriptor: &toolchain.Descriptor{},
		Policy:     policy,
		Translator: &ClangTranslator{Clang: clang, TempDir: dir},
		Output:     &out,
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.SliceContains(res.Headers, header))

	have := normalize(out.String())
	for _, want := range []string{
		"// #define FOO_MAX 16",
		"Bar = C.struct_bar",
		"Color = C.enum_color",
		"Foo = C.struct_foo",
		"FooIdT = C.foo_id_t",
		"FOO_MAX = C.FOO_MAX",
		"GREEN = C.GREEN",
		"RED = C.RED",
		"func FooInit(f *Foo, id FooIdT) int32 {\nreturn int32(C.foo_init(f, id))\n}",
	} {
		qt.Assert(t, qt.StringContains(have, want))
	}
	qt.Assert(t, qt.Not(qt.StringContains(have, "FooInline")))
	qt.Assert(t, qt.IsFalse(strings.Contains(have, "import \"unsafe\"")))
}
