package bindgen

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen/internal"
	"github.com/demikernel/dpdkgen/toolchain"
)

// ClangTranslator parses headers using clang.
type ClangTranslator struct {
	// Defaults to "clang".
	Clang  string
	Runner toolchain.Runner
	// Directory for temporary files, defaults to os.TempDir.
	TempDir string
	Logger  *zap.Logger
}

var _ Translator = (*ClangTranslator)(nil)

func (ct *ClangTranslator) clang() string {
	if ct.Clang == "" {
		return "clang"
	}
	return ct.Clang
}

// Translate runs clang twice: once to dump the AST as JSON and once to run
// the preprocessor, which yields macros and the list of included files.
func (ct *ClangTranslator) Translate(ctx context.Context, req Request) (_ *SymbolTable, err error) {
	if req.Header == "" {
		return nil, fmt.Errorf("no header to translate")
	}

	logger := ct.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := os.MkdirTemp(ct.TempDir, "dpdk2go-clang-")
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(dir))
	}()

	args := []string{"-x", "c"}
	for _, path := range req.IncludePaths {
		args = append(args, "-I"+path)
	}
	args = append(args, req.Flags...)

	astFile := filepath.Join(dir, "ast.json")
	astArgs := append(args[:len(args):len(args)], "-fsyntax-only", "-Xclang", "-ast-dump=json", req.Header)
	if err := ct.run(ctx, logger, astFile, astArgs); err != nil {
		return nil, err
	}

	table, err := readFile(astFile, func(r io.Reader) (*SymbolTable, error) {
		return decodeAST(r, req.Comments)
	})
	if err != nil {
		return nil, err
	}

	macroFile := filepath.Join(dir, "macros.h")
	depFile := filepath.Join(dir, "macros.d")
	ppArgs := append(args[:len(args):len(args)], "-E", "-dD", "-MD", "-MF", depFile, "-o", macroFile, req.Header)
	if err := ct.run(ctx, logger, "", ppArgs); err != nil {
		return nil, err
	}

	table.Macros, err = readFile(macroFile, parseMacros)
	if err != nil {
		return nil, fmt.Errorf("read macros: %w", err)
	}

	deps, err := readFile(depFile, func(r io.Reader) (*internal.Depfile, error) {
		// clang writes paths relative to its working directory.
		return internal.ReadDepfile(r, ".")
	})
	if err != nil {
		return nil, fmt.Errorf("read dependencies: %w", err)
	}
	table.Headers = deps.Prerequisites()

	logger.Debug("Translated header",
		zap.String("header", req.Header),
		zap.Int("functions", len(table.Functions)),
		zap.Int("records", len(table.Records)),
		zap.Int("typedefs", len(table.Typedefs)),
		zap.Int("macros", len(table.Macros)),
		zap.Int("headers", len(table.Headers)))

	return table, nil
}

// run executes clang, writing stdout to a file if one is given.
func (ct *ClangTranslator) run(ctx context.Context, logger *zap.Logger, stdout string, args []string) (err error) {
	cmd := exec.CommandContext(ctx, ct.clang(), args...)
	logger.Debug("Running clang", zap.Strings("args", cmd.Args))

	var w io.Writer = io.Discard
	if stdout != "" {
		f, createErr := os.Create(stdout)
		if createErr != nil {
			return createErr
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		w = f
	}

	return toolchain.Exec(ct.Runner, cmd, w)
}

func readFile[T any](name string, fn func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(name)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()

	return fn(f)
}
