package toolchain

import "go.uber.org/zap"

// Options configure the locator returned by Default.
type Options struct {
	Env    Environ
	Runner Runner
	// PkgConfig overrides the pkg-config binary. Ignored on Windows.
	PkgConfig string
	Logger    *zap.Logger
}
