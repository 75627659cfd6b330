package toolchain

// Default returns the locator for this platform.
func Default(opts Options) Locator {
	return &EnvLocator{Env: opts.Env, Logger: opts.Logger}
}
