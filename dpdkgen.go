package dpdkgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen/bindgen"
	"github.com/demikernel/dpdkgen/directive"
	"github.com/demikernel/dpdkgen/internal/platform"
	"github.com/demikernel/dpdkgen/shim"
	"github.com/demikernel/dpdkgen/symbols"
	"github.com/demikernel/dpdkgen/toolchain"
)

// DefaultStem prefixes the names of all artifacts unless Config.Stem is set.
const DefaultStem = "dpdk"

// ccEnv are consulted in order if Config.CC is empty.
var ccEnv = []string{"DPDK2GO_CC", "CC"}

// Config for Run.
type Config struct {
	// Package of the generated Go files.
	Package string
	// Directory receiving the artifacts. Defaults to the working directory.
	OutputDir string
	// Prefix of all artifact names. Defaults to DefaultStem.
	Stem string

	// Wrapper header whose text becomes the cgo preamble. The embedded
	// shim.DefaultHeader is used if empty.
	Header string
	// C source of the inline shim. The embedded shim.DefaultSource is used
	// if empty.
	Shim string

	// Compiler for the shim. Defaults to $DPDK2GO_CC, $CC and finally clang.
	CC string
	// clang used to parse headers. Defaults to clang.
	Clang string
	// Overrides the pkg-config binary.
	PkgConfig string
	// Additional flags for parsing headers and compiling the shim.
	CFlags   []string
	Features []toolchain.Feature

	// Write a make compatible dependency file with paths relative to this
	// directory.
	MakeBase string
	// Copy documentation comments from the headers.
	Comments bool

	// Target platform, defaults to the host.
	GOOS   string
	GOARCH string

	// Environment variables which influenced the configuration, for
	// example because they provided flag defaults. They become rebuild
	// triggers.
	WatchedEnv []string

	Env toolchain.Environ
	// Runs pkg-config, clang and the compiler.
	Runner toolchain.Runner
	// Overrides toolchain.Default.
	Locator toolchain.Locator
	// Overrides the clang based translator.
	Translator bindgen.Translator
	Logger     *zap.Logger
}

// Result of a successful run.
type Result struct {
	Descriptor *toolchain.Descriptor
	// Link directives followed by rebuild triggers.
	Directives []directive.Directive
	// Absolute paths of all artifacts, in the order they were written.
	Artifacts []string
	Interface *bindgen.Result
}

// artifacts tracks the files written by a run so they can be removed if a
// later step fails.
type artifacts struct {
	dir     string
	written []string
	logger  *zap.Logger
}

func (a *artifacts) path(name string) string {
	return filepath.Join(a.dir, name)
}

// claim registers a file which is written by somebody else.
func (a *artifacts) claim(name string) string {
	path := a.path(name)
	a.written = append(a.written, path)
	return path
}

// write buffers the output of fn and writes it to name if fn succeeds.
func (a *artifacts) write(name string, fn func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return "", err
	}

	path := a.claim(name)
	if err := os.WriteFile(path, buf.Bytes(), 0666); err != nil {
		return "", err
	}

	a.logger.Info("Wrote", zap.String("file", path))
	return path, nil
}

func (a *artifacts) removeAll() error {
	var err error
	for _, path := range a.written {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = multierr.Append(err, rmErr)
		}
	}
	return err
}

func lookupEnv(env toolchain.Environ, key string) (string, bool) {
	if env == nil {
		return os.LookupEnv(key)
	}
	return env(key)
}

func (cfg *Config) cc() string {
	if cfg.CC != "" {
		return cfg.CC
	}
	for _, key := range ccEnv {
		if cc, ok := lookupEnv(cfg.Env, key); ok && cc != "" {
			return cc
		}
	}
	return "clang"
}

// Run locates DPDK and writes all artifacts.
//
// Steps run in a fixed order: locate, link, generate, shim and finally the
// dependency file. Any error aborts the run and removes the artifacts
// written so far.
func Run(ctx context.Context, cfg Config) (_ *Result, err error) {
	if !token.IsIdentifier(cfg.Package) {
		return nil, fmt.Errorf("%q is not a valid package name", cfg.Package)
	}

	goos, goarch := cfg.GOOS, cfg.GOARCH
	if goos == "" {
		goos = platform.Native
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	if err := platform.Check(goos); err != nil {
		return nil, err
	}

	stem := cfg.Stem
	if stem == "" {
		stem = DefaultStem
	}
	if strings.ContainsAny(stem, `/\`) {
		return nil, fmt.Errorf("stem %q contains a path separator", stem)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	var makeBase string
	if cfg.MakeBase != "" {
		makeBase, err = filepath.Abs(cfg.MakeBase)
		if err != nil {
			return nil, err
		}
	}

	scratch, err := os.MkdirTemp("", "dpdk2go-")
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(scratch))
	}()

	out := &artifacts{dir: outputDir, logger: logger}
	defer func() {
		if err != nil {
			err = multierr.Append(err, out.removeAll())
		}
	}()

	var triggers directive.Triggers

	// Locate
	locator := cfg.Locator
	if locator == nil {
		locator = toolchain.Default(toolchain.Options{
			Env:       cfg.Env,
			Runner:    cfg.Runner,
			PkgConfig: cfg.PkgConfig,
			Logger:    logger,
		})
	}

	desc, err := locator.Locate(ctx)
	if err != nil {
		return nil, fmt.Errorf("locate DPDK: %w", err)
	}
	desc = desc.WithFeatures(cfg.Features...).WithCompileFlags(cfg.CFlags...)
	triggers.AddEnv(desc.WatchedEnv...)

	policy := symbols.ForPlatform(goos).With(toolchain.FeatureRules(cfg.Features)...)

	// Link
	links := directive.Link(desc)
	if _, err := out.write(fmt.Sprintf("%s_link_%s.go", stem, goos), func(w io.Writer) error {
		return directive.WriteCgo(w, cfg.Package, links)
	}); err != nil {
		return nil, fmt.Errorf("write link directives: %w", err)
	}

	// Generate
	header, source, err := sources(cfg, scratch, &triggers)
	if err != nil {
		return nil, err
	}

	translator := cfg.Translator
	if translator == nil {
		translator = &bindgen.ClangTranslator{
			Clang:   cfg.Clang,
			Runner:  cfg.Runner,
			TempDir: scratch,
			Logger:  logger,
		}
	}

	var iface *bindgen.Result
	interfaceFile, err := out.write(fmt.Sprintf("%s_%s.go", stem, goos), func(w io.Writer) error {
		res, err := bindgen.Generate(ctx, bindgen.GenerateArgs{
			Package:    cfg.Package,
			Header:     header,
			Descriptor: desc,
			Policy:     policy,
			GOOS:       goos,
			Comments:   cfg.Comments,
			Translator: translator,
			Output:     w,
			Logger:     logger,
		})
		iface = res
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("generate interface: %w", err)
	}

	for _, file := range iface.Headers {
		if !within(scratch, file) {
			if err := triggers.AddFiles(file); err != nil {
				return nil, err
			}
		}
	}

	// Shim
	shim.CheckHost(logger, desc.CompileFlags)

	cc := cfg.cc()
	if cfg.CC == "" {
		triggers.AddEnv(ccEnv...)
	}

	syso := out.claim(fmt.Sprintf("%s_inlined_%s_%s.syso", stem, goos, goarch))
	err = shim.Build(ctx, shim.Args{
		CC:           cc,
		Source:       source,
		Dest:         syso,
		IncludePaths: desc.IncludePaths,
		Flags:        cfg.CFlags,
		PIC:          platform.PIC(goos),
		Runner:       cfg.Runner,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build shim: %w", err)
	}

	// Triggers
	triggers.AddEnv(cfg.WatchedEnv...)

	if makeBase != "" {
		_, err := out.write(fmt.Sprintf("%s_%s.go.d", stem, goos), func(w io.Writer) error {
			return directive.WriteDepfile(w, makeBase, interfaceFile, &triggers)
		})
		if err != nil {
			return nil, fmt.Errorf("write dependency file: %w", err)
		}
	}

	return &Result{
		Descriptor: desc,
		Directives: slices.Concat(links, triggers.Directives()),
		Artifacts:  slices.Clone(out.written),
		Interface:  iface,
	}, nil
}

// sources returns the absolute paths of the wrapper header and the shim.
//
// The embedded defaults are always written to scratch, since the default
// shim includes the default header from its own directory.
func sources(cfg Config, scratch string, triggers *directive.Triggers) (header, source string, err error) {
	header = filepath.Join(scratch, shim.DefaultHeaderName)
	if err := os.WriteFile(header, shim.DefaultHeader, 0644); err != nil {
		return "", "", err
	}

	source = filepath.Join(scratch, shim.DefaultSourceName)
	if err := os.WriteFile(source, shim.DefaultSource, 0644); err != nil {
		return "", "", err
	}

	abs := func(path string) (string, error) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		path, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return path, triggers.AddFiles(path)
	}

	if cfg.Header != "" {
		if header, err = abs(cfg.Header); err != nil {
			return "", "", fmt.Errorf("header: %w", err)
		}
	}

	if cfg.Shim != "" {
		if source, err = abs(cfg.Shim); err != nil {
			return "", "", fmt.Errorf("shim: %w", err)
		}
	}

	return header, source, nil
}

// within returns true if path is below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
