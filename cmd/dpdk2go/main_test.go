package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/demikernel/dpdkgen"
	"github.com/demikernel/dpdkgen/directive"
	"github.com/demikernel/dpdkgen/toolchain"
)

type fakeRun struct {
	configs []dpdkgen.Config
	result  *dpdkgen.Result
	err     error
}

func (fr *fakeRun) run(_ context.Context, cfg dpdkgen.Config) (*dpdkgen.Result, error) {
	fr.configs = append(fr.configs, cfg)
	if fr.err != nil {
		return nil, fr.err
	}
	if fr.result == nil {
		return &dpdkgen.Result{}, nil
	}
	return fr.result, nil
}

func runCLI(env map[string]string, fr *fakeRun, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	d2g := &dpdk2go{
		stdout: &outBuf,
		stderr: &errBuf,
		env:    toolchain.MapEnviron(env),
		run:    fr.run,
	}
	err = run(context.Background(), d2g, args)
	return outBuf.String(), errBuf.String(), err
}

func TestRun(t *testing.T) {
	var fr fakeRun
	_, _, err := runCLI(nil, &fr,
		"-go-package", "dpdk",
		"-output-dir", "/tmp/out",
		"-stem", "bindings",
		"-header", "bindings.h",
		"-shim", "inlined/inlined.c",
		"-cc", "gcc",
		"-clang", "clang-18",
		"-pkg-config=/usr/bin/pkgconf",
		"-cflags", `-DFOO "-I/opt/my dpdk"`,
		"-features", "mlx5",
		"-makebase", "/tmp",
		"--comments",
	)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(fr.configs, 1))

	want := dpdkgen.Config{
		Package:    "dpdk",
		OutputDir:  "/tmp/out",
		Stem:       "bindings",
		Header:     "bindings.h",
		Shim:       "inlined/inlined.c",
		CC:         "gcc",
		Clang:      "clang-18",
		PkgConfig:  "/usr/bin/pkgconf",
		CFlags:     []string{"-DFOO", "-I/opt/my dpdk"},
		Features:   []toolchain.Feature{toolchain.MLX5},
		MakeBase:   "/tmp",
		Comments:   true,
		WatchedEnv: []string{"DPDK2GO_CFLAGS", "DPDK2GO_FEATURES"},
	}

	have := fr.configs[0]
	qt.Assert(t, qt.IsNotNil(have.Env))
	qt.Assert(t, qt.IsNotNil(have.Logger))
	if diff := cmp.Diff(want, have, cmpopts.IgnoreFields(dpdkgen.Config{}, "Env", "Logger")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestRunEnvironmentDefaults(t *testing.T) {
	var fr fakeRun
	_, _, err := runCLI(map[string]string{
		"GOPACKAGE":        "bindings",
		"DPDK2GO_CFLAGS":   "-DALLOW_EXPERIMENTAL_API",
		"DPDK2GO_FEATURES": " mlx5 ,",
	}, &fr)
	qt.Assert(t, qt.IsNil(err))

	cfg := fr.configs[0]
	qt.Assert(t, qt.Equals(cfg.Package, "bindings"))
	qt.Assert(t, qt.Equals(cfg.Stem, dpdkgen.DefaultStem))
	qt.Assert(t, qt.DeepEquals(cfg.CFlags, []string{"-DALLOW_EXPERIMENTAL_API"}))
	qt.Assert(t, qt.HasLen(cfg.Features, 1))
	qt.Assert(t, qt.Equals(cfg.Features[0].Name, "mlx5"))
}

func TestRunFlagsOverrideEnvironment(t *testing.T) {
	var fr fakeRun
	_, _, err := runCLI(map[string]string{
		"GOPACKAGE":      "bindings",
		"DPDK2GO_CFLAGS": "-DFOO",
	}, &fr, "--go-package", "other", "-cflags", "")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(fr.configs[0].Package, "other"))
	qt.Assert(t, qt.HasLen(fr.configs[0].CFlags, 0))
}

func TestRunMissingPackage(t *testing.T) {
	var fr fakeRun
	_, _, err := runCLI(nil, &fr)
	qt.Assert(t, qt.ErrorMatches(err, `missing package.*GOPACKAGE`))
	qt.Assert(t, qt.HasLen(fr.configs, 0))
}

func TestRunInvalidFlags(t *testing.T) {
	for name, args := range map[string][]string{
		"depfile flag":   {"-cflags", "-MD"},
		"bad quoting":    {"-cflags", `"-DFOO`},
		"unknown feture": {"-features", "mlx4"},
		"log level":      {"-log-level", "loud"},
		"arguments":      {"foo.h"},
		"unknown flag":   {"-frobnicate"},
	} {
		t.Run(name, func(t *testing.T) {
			var fr fakeRun
			_, _, err := runCLI(map[string]string{"GOPACKAGE": "dpdk"}, &fr, args...)
			qt.Assert(t, qt.IsNotNil(err))
			qt.Assert(t, qt.HasLen(fr.configs, 0))
		})
	}
}

func TestRunPrintDirectives(t *testing.T) {
	fr := fakeRun{result: &dpdkgen.Result{Directives: []directive.Directive{
		{Kind: directive.LinkSearch, Value: "/opt/dpdk/lib"},
		{Kind: directive.LinkLibrary, Value: "rte_eal"},
		{Kind: directive.RerunIfEnvChanged, Value: "PKG_CONFIG_PATH"},
	}}}

	stdout, _, err := runCLI(map[string]string{"GOPACKAGE": "dpdk"}, &fr, "-print-directives")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(stdout, "dpdk2go:link-search=/opt/dpdk/lib\n"+
		"dpdk2go:link-lib=rte_eal\n"+
		"dpdk2go:rerun-if-env-changed=PKG_CONFIG_PATH\n"))

	stdout, _, err = runCLI(map[string]string{"GOPACKAGE": "dpdk"}, &fr)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(stdout, ""))
}

func TestRunError(t *testing.T) {
	fr := fakeRun{err: toolchain.ErrNotFound}
	_, _, err := runCLI(map[string]string{"GOPACKAGE": "dpdk"}, &fr)
	qt.Assert(t, qt.ErrorIs(err, toolchain.ErrNotFound))
}

func logFrom(fr *fakeRun) func(context.Context, dpdkgen.Config) (*dpdkgen.Result, error) {
	return func(ctx context.Context, cfg dpdkgen.Config) (*dpdkgen.Result, error) {
		cfg.Logger.Debug("Compiling shim")
		cfg.Logger.Info("Wrote", zap.String("file", "dpdk_linux.go"))
		return fr.run(ctx, cfg)
	}
}

func TestRunLogsToStderr(t *testing.T) {
	var fr fakeRun
	var stdout, stderr bytes.Buffer
	d2g := &dpdk2go{
		stdout: &stdout,
		stderr: &stderr,
		env:    toolchain.MapEnviron(map[string]string{"GOPACKAGE": "dpdk"}),
		run:    logFrom(&fr),
	}

	qt.Assert(t, qt.IsNil(run(context.Background(), d2g, nil)))
	qt.Assert(t, qt.Equals(stdout.String(), ""))
	qt.Assert(t, qt.StringContains(stderr.String(), "Wrote"))
	qt.Assert(t, qt.StringContains(stderr.String(), "dpdk_linux.go"))
	qt.Assert(t, qt.Not(qt.StringContains(stderr.String(), "Compiling shim")))

	stderr.Reset()
	d2g.env = toolchain.MapEnviron(map[string]string{"GOPACKAGE": "dpdk", "DPDK2GO_LOG_LEVEL": "debug"})
	qt.Assert(t, qt.IsNil(run(context.Background(), d2g, nil)))
	qt.Assert(t, qt.StringContains(stderr.String(), "Compiling shim"))
}

func TestHelp(t *testing.T) {
	for _, arg := range []string{"-h", "-help", "--help"} {
		var fr fakeRun
		stdout, _, err := runCLI(nil, &fr, arg)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.StringContains(stdout, "GOPACKAGE"))
		qt.Assert(t, qt.StringContains(stdout, "--go-package"))
		qt.Assert(t, qt.HasLen(fr.configs, 0))
	}
}

func TestNormalizeArgs(t *testing.T) {
	fs := newCommand(&dpdk2go{env: toolchain.MapEnviron(nil)}).Flags()

	have := normalizeArgs(fs, []string{
		"-go-package", "dpdk",
		"-cflags=-DFOO",
		"--stem", "x",
		"-h",
		"-unknown",
		"-",
		"--", "-cc",
	})
	qt.Assert(t, qt.DeepEquals(have, []string{
		"--go-package", "dpdk",
		"--cflags=-DFOO",
		"--stem", "x",
		"-h",
		"-unknown",
		"-",
		"--", "-cc",
	}))
}
