package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/demikernel/dpdkgen"
	"github.com/demikernel/dpdkgen/directive"
	"github.com/demikernel/dpdkgen/internal"
	"github.com/demikernel/dpdkgen/toolchain"
)

const helpText = `Locates DPDK, generates a cgo interface for the parts of its API exposed
to Go and compiles the shim for DPDK's inline functions.

DPDK is located via pkg-config on Linux and via LIBDPDK_PATH on Windows.
The generated files are written to the output directory, which defaults to
the current directory.

The program expects GOPACKAGE to be set in the environment, and should be
invoked via go generate.

You can pass options to the compiler by supplying -cflags. The program expands
quotation marks in -cflags. This means that -cflags 'foo "bar baz"' is passed
to the compiler as two arguments "foo" and "bar baz".`

// Environment variables supplying flag defaults.
const (
	envPackage  = "GOPACKAGE"
	envCFlags   = "DPDK2GO_CFLAGS"
	envFeatures = "DPDK2GO_FEATURES"
	envLogLevel = "DPDK2GO_LOG_LEVEL"
)

type pipeline func(context.Context, dpdkgen.Config) (*dpdkgen.Result, error)

type dpdk2go struct {
	stdout io.Writer
	stderr io.Writer
	env    toolchain.Environ
	run    pipeline

	cfg             dpdkgen.Config
	cflags          string
	features        string
	logLevel        string
	printDirectives bool
}

func (d2g *dpdk2go) getenv(key string) string {
	v, _ := d2g.env(key)
	return v
}

func newCommand(d2g *dpdk2go) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dpdk2go [options]",
		Short:         "Generate cgo bindings for DPDK",
		Long:          helpText,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d2g.generate(cmd.Context())
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	fs.StringVar(&d2g.cfg.Package, "go-package", d2g.getenv(envPackage), "package for the generated Go files")
	fs.StringVar(&d2g.cfg.OutputDir, "output-dir", "", "`directory` for the generated files (default: current directory)")
	fs.StringVar(&d2g.cfg.Stem, "stem", dpdkgen.DefaultStem, "prefix of the generated file names")
	fs.StringVar(&d2g.cfg.Header, "header", "", "wrapper `header` used as cgo preamble (default: embedded wrapper.h)")
	fs.StringVar(&d2g.cfg.Shim, "shim", "", "C `source` of the inline shim (default: embedded inlined.c)")
	fs.StringVar(&d2g.cfg.CC, "cc", "", "`binary` used to compile the shim (default: $DPDK2GO_CC, $CC or clang)")
	fs.StringVar(&d2g.cfg.Clang, "clang", "", "clang `binary` used to parse headers")
	fs.StringVar(&d2g.cfg.PkgConfig, "pkg-config", "", "pkg-config `binary` (default: $PKG_CONFIG or pkg-config)")
	fs.StringVar(&d2g.cflags, "cflags", d2g.getenv(envCFlags), "flags passed to the compiler, may contain quoted arguments")
	fs.StringVar(&d2g.features, "features", d2g.getenv(envFeatures), fmt.Sprintf("comma separated optional `features` (known: %s)", strings.Join(toolchain.FeatureNames(), ", ")))
	fs.StringVar(&d2g.cfg.MakeBase, "makebase", "", "write make compatible depinfo files relative to `directory`")
	fs.BoolVar(&d2g.printDirectives, "print-directives", false, "print link directives and rebuild triggers to stdout")
	fs.BoolVar(&d2g.cfg.Comments, "comments", false, "copy documentation comments from the headers")
	fs.StringVar(&d2g.logLevel, "log-level", d2g.getenv(envLogLevel), "log `level` (debug, info, warn, error)")

	// Registered eagerly so that normalizeArgs knows about -help.
	cmd.InitDefaultHelpFlag()

	cmd.SetOut(d2g.stdout)
	cmd.SetErr(d2g.stderr)
	return cmd
}

func (d2g *dpdk2go) generate(ctx context.Context) error {
	if d2g.cfg.Package == "" {
		return errors.New("missing package, set -go-package or run via go generate which sets " + envPackage)
	}

	cflags, err := internal.SplitArguments(d2g.cflags)
	if err != nil {
		return fmt.Errorf("cflags: %w", err)
	}
	for _, flag := range cflags {
		if strings.HasPrefix(flag, "-M") {
			return fmt.Errorf("use -makebase instead of %q", flag)
		}
	}
	d2g.cfg.CFlags = cflags

	d2g.cfg.Features, err = toolchain.ParseFeatures(strings.Split(d2g.features, ",")...)
	if err != nil {
		return err
	}

	logger, err := newLogger(d2g.stderr, d2g.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	d2g.cfg.Env = d2g.env
	d2g.cfg.Logger = logger
	d2g.cfg.WatchedEnv = []string{envCFlags, envFeatures}

	res, err := d2g.run(ctx, d2g.cfg)
	if err != nil {
		return err
	}

	if d2g.printDirectives {
		return directive.WriteText(d2g.stdout, res.Directives)
	}
	return nil
}

// newLogger writes human readable logs to w. stdout is reserved for
// directives.
func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// normalizeArgs accepts long flags with a single dash, as used by go
// generate directives, by turning them into double dash flags.
func normalizeArgs(fs *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}

		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			name, _, _ := strings.Cut(arg[1:], "=")
			if fs.Lookup(name) != nil {
				arg = "-" + arg
			}
		}
		out = append(out, arg)
	}
	return out
}

func run(ctx context.Context, d2g *dpdk2go, args []string) error {
	cmd := newCommand(d2g)
	cmd.SetArgs(normalizeArgs(cmd.Flags(), args))
	return cmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d2g := &dpdk2go{
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    toolchain.OSEnviron,
		run:    dpdkgen.Run,
	}

	if err := run(ctx, d2g, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
