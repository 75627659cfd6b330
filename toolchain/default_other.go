//go:build !windows

package toolchain

// Default returns the locator for this platform.
func Default(opts Options) Locator {
	return &PkgConfigLocator{
		Env:    opts.Env,
		Binary: opts.PkgConfig,
		Runner: opts.Runner,
		Logger: opts.Logger,
	}
}
