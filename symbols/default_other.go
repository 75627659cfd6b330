//go:build !windows

package symbols

// Default returns the policy of the platform the generator is built for.
func Default() *Policy {
	return Linux()
}
