package shim

import (
	"runtime"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"
)

// VectorLevel returns the widest x86 vector extension of the host, or an
// empty string on other architectures.
func VectorLevel() string {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "386" {
		return ""
	}

	switch {
	case cpu.X86.HasAVX512F:
		return "avx512"
	case cpu.X86.HasAVX2:
		return "avx2"
	case cpu.X86.HasAVX:
		return "avx"
	default:
		return "none"
	}
}

// CheckHost logs the vector extensions of the host and warns if flags
// request AVX although the host lacks it.
//
// -march=native code built on such a host can't use AVX either, so the
// interface and the shim disagree on the layout of vector types.
func CheckHost(logger *zap.Logger, flags []string) {
	if logger == nil {
		return
	}

	level := VectorLevel()
	if level == "" {
		logger.Debug("Host is not x86, skipping vector extension check", zap.String("arch", runtime.GOARCH))
		return
	}

	logger.Debug("Host vector extensions", zap.String("level", level))
	if level == "none" && slices.Contains(flags, "-mavx") {
		logger.Warn("Headers are parsed with -mavx but the host doesn't support AVX")
	}
}
