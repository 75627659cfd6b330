package directive

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/demikernel/dpdkgen/internal"
	"github.com/demikernel/dpdkgen/toolchain"
)

func TestLink(t *testing.T) {
	desc := &toolchain.Descriptor{
		IncludePaths:      []string{"/inc"},
		LibrarySearchPath: "path/lib",
		Libraries:         []string{"foo", "bar", "foo"},
	}

	qt.Assert(t, qt.DeepEquals(Link(desc), []Directive{
		{LinkSearch, "path/lib"},
		{LinkLibrary, "foo"},
		{LinkLibrary, "bar"},
		{LinkLibrary, "foo"},
	}))
}

func TestLinkWithoutSearchPath(t *testing.T) {
	desc := &toolchain.Descriptor{Libraries: []string{"rte_eal"}}
	qt.Assert(t, qt.DeepEquals(Link(desc), []Directive{{LinkLibrary, "rte_eal"}}))

	qt.Assert(t, qt.HasLen(Link(&toolchain.Descriptor{}), 0))
}

func TestLinkWithFeature(t *testing.T) {
	desc := (&toolchain.Descriptor{Libraries: []string{"rte_bus_pci"}}).WithFeatures(toolchain.MLX5)

	var libs []string
	for _, d := range Link(desc) {
		qt.Assert(t, qt.Equals(d.Kind, LinkLibrary))
		libs = append(libs, d.Value)
	}
	qt.Assert(t, qt.DeepEquals(libs, []string{
		"rte_bus_pci", "rte_net_mlx5", "rte_bus_pci", "rte_bus_vdev", "rte_common_mlx5",
	}))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	err := WriteText(&buf, []Directive{
		{LinkSearch, "/opt/dpdk/lib"},
		{LinkLibrary, "rte_eal"},
		{RerunIfChanged, "/opt/dpdk/include/rte_eal.h"},
		{RerunIfEnvChanged, "LIBDPDK_PATH"},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(buf.String(), `dpdk2go:link-search=/opt/dpdk/lib
dpdk2go:link-lib=rte_eal
dpdk2go:rerun-if-changed=/opt/dpdk/include/rte_eal.h
dpdk2go:rerun-if-env-changed=LIBDPDK_PATH
`))
}

func TestWriteCgo(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCgo(&buf, "dpdk", []Directive{
		{LinkSearch, "/opt/my dpdk/lib"},
		{LinkLibrary, "rte_eal"},
		{LinkLibrary, "rte_eal"},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(buf.String(), `// Code generated by dpdk2go; DO NOT EDIT.

package dpdk

// #cgo LDFLAGS: "-L/opt/my dpdk/lib"
// #cgo LDFLAGS: -lrte_eal
// #cgo LDFLAGS: -lrte_eal
import "C"
`))
}

func TestWriteCgoRejectsTriggers(t *testing.T) {
	err := WriteCgo(new(bytes.Buffer), "dpdk", []Directive{{RerunIfEnvChanged, "CC"}})
	qt.Assert(t, qt.ErrorMatches(err, `.*rerun-if-env-changed=CC can't be expressed in cgo`))

	err = WriteCgo(new(bytes.Buffer), "", nil)
	qt.Assert(t, qt.IsNotNil(err))
}

func TestTriggers(t *testing.T) {
	var tr Triggers
	base := t.TempDir()
	a := filepath.Join(base, "a.h")
	b := filepath.Join(base, "b.h")

	qt.Assert(t, qt.IsNil(tr.AddFiles(a, b, a, "")))
	tr.AddEnv("PKG_CONFIG_PATH", "PKG_CONFIG_PATH", "")
	qt.Assert(t, qt.IsNil(tr.AddFiles(b)))
	tr.AddEnv("LIBDPDK_PATH")

	qt.Assert(t, qt.DeepEquals(tr.Files(), []string{a, b}))
	qt.Assert(t, qt.DeepEquals(tr.Env(), []string{"PKG_CONFIG_PATH", "LIBDPDK_PATH"}))
	qt.Assert(t, qt.DeepEquals(tr.Directives(), []Directive{
		{RerunIfChanged, a},
		{RerunIfChanged, b},
		{RerunIfEnvChanged, "PKG_CONFIG_PATH"},
		{RerunIfEnvChanged, "LIBDPDK_PATH"},
	}))
}

func TestTriggersRelativeFiles(t *testing.T) {
	var tr Triggers
	qt.Assert(t, qt.IsNil(tr.AddFiles("wrapper.h")))

	files := tr.Files()
	qt.Assert(t, qt.HasLen(files, 1))
	qt.Assert(t, qt.IsTrue(filepath.IsAbs(files[0])))
	qt.Assert(t, qt.Equals(filepath.Base(files[0]), "wrapper.h"))
}

func TestWriteDepfile(t *testing.T) {
	base := t.TempDir()

	var tr Triggers
	tr.AddEnv("PKG_CONFIG_PATH")
	qt.Assert(t, qt.IsNil(tr.AddFiles(
		filepath.Join(base, "wrapper.h"),
		filepath.Join(base, "include", "rte_mbuf.h"),
	)))

	var buf bytes.Buffer
	err := WriteDepfile(&buf, base, filepath.Join(base, "out", "dpdk_linux.go"), &tr)
	qt.Assert(t, qt.IsNil(err))

	want := strings.Join([]string{
		"# dpdk2go:rerun-if-env-changed=PKG_CONFIG_PATH",
		`out/dpdk_linux.go: \`,
		` wrapper.h \`,
		` include/rte_mbuf.h`,
		"",
		"",
	}, "\n")
	qt.Assert(t, qt.Equals(buf.String(), want))

	df, err := internal.ReadDepfile(&buf, base)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(df.Env, tr.Env()))
	qt.Assert(t, qt.DeepEquals(df.Prerequisites(), tr.Files()))
}
