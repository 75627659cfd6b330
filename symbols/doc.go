// Package symbols holds the static policy deciding which DPDK declarations are
// exposed by the generated bindings.
//
// A Policy is a table of rules. Allow rules name the API surface a consumer
// needs, Block rules suppress declarations that cgo can't represent, such as
// packed structs with bitfields. When a policy is Recursive, every type an
// allowed declaration depends on is exposed as well, unless it is blocked.
//
// Block always takes precedence over Allow. A name must not be both allowed
// and blocked for the same Kind, which Validate checks.
package symbols
