// Package toolchain finds the DPDK headers and libraries on the host.
//
// A Locator produces a [Descriptor] holding include paths, the library search
// path and the names of the libraries to link against. There are two
// variants: [EnvLocator] derives everything from an installation root given
// in LIBDPDK_PATH, as done on Windows, and [PkgConfigLocator] queries
// pkg-config, as done on Linux. [Default] returns the variant for the
// platform the generator was built for.
//
// Locators read the environment through an [Environ] and run processes
// through a [Runner], so that both can be replaced in tests.
package toolchain
