package bindgen

import (
	"context"
	"errors"
	"fmt"
	"go/build/constraint"
	"go/token"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen/internal/platform"
	"github.com/demikernel/dpdkgen/symbols"
	"github.com/demikernel/dpdkgen/toolchain"
)

type GenerateArgs struct {
	// Package of the resulting file.
	Package string
	// Build constraints included in the resulting file.
	Constraints constraint.Expr
	// Absolute path of the wrapper header. Its text becomes the cgo
	// preamble.
	Header     string
	Descriptor *toolchain.Descriptor
	Policy     *symbols.Policy
	// Platform the interface is generated for, defaults to the host.
	GOOS string
	// Carry documentation comments from the headers onto wrappers.
	Comments   bool
	Translator Translator
	// Output to write the interface to.
	Output io.Writer
	Logger *zap.Logger
}

// Result summarises a successful run.
type Result struct {
	// Every header visited during translation.
	Headers   []string
	Types     int
	Constants int
	Variables int
	Functions int
}

// Generate translates the wrapper header and writes the cgo interface.
//
// With an allowlist in the policy every problem with an allowed symbol is an
// error. Without one, declarations which can't be expressed in cgo are
// skipped.
func Generate(ctx context.Context, args GenerateArgs) (*Result, error) {
	switch {
	case !token.IsIdentifier(args.Package):
		return nil, fmt.Errorf("%q is not a valid package name", args.Package)
	case args.Header == "":
		return nil, errors.New("missing header")
	case args.Descriptor == nil:
		return nil, errors.New("missing toolchain descriptor")
	case args.Policy == nil:
		return nil, errors.New("missing symbol policy")
	case args.Translator == nil:
		return nil, errors.New("missing translator")
	case args.Output == nil:
		return nil, errors.New("missing output")
	}

	goos := args.GOOS
	if goos == "" {
		goos = platform.Native
	}

	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := args.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid policy: %w", ErrGenerationFailed, err)
	}

	header, err := os.ReadFile(args.Header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	desc := args.Descriptor
	table, err := args.Translator.Translate(ctx, Request{
		Header:       args.Header,
		IncludePaths: desc.IncludePaths,
		Flags:        desc.CompileFlags,
		Comments:     args.Comments,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	strict := args.Policy.HasAllowlist()
	sel, err := selectSymbols(table, args.Policy, includeScope(args.Header, desc.IncludePaths), logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var cflags []string
	for _, path := range desc.IncludePaths {
		cflags = append(cflags, "-I"+path)
	}
	cflags = append(cflags, desc.CompileFlags...)

	blocked := func(ref typeRef) bool {
		return args.Policy.Blocked(symbols.Type, ref.Name)
	}

	out, err := emit(sel, table, &writeArgs{
		Package:     args.Package,
		Constraints: args.Constraints,
		CFlags:      cflags,
		Header:      header,
		GOOS:        goos,
		Comments:    args.Comments,
	}, blocked, strict, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if err := writeOutput(out, args.Output); err != nil {
		return nil, err
	}

	logger.Debug("Generated interface",
		zap.Int("types", len(out.Types)),
		zap.Int("constants", len(out.Constants)),
		zap.Int("variables", len(out.Variables)),
		zap.Int("functions", len(out.Functions)))

	return &Result{
		Headers:   table.Headers,
		Types:     len(out.Types),
		Constants: len(out.Constants),
		Variables: len(out.Variables),
		Functions: len(out.Functions),
	}, nil
}
