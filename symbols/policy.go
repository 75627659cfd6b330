package symbols

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// Policy is a set of rules applied to the declarations found in the DPDK
// headers.
type Policy struct {
	Rules []Rule
	// Recursive exposes the types that allowed declarations depend on.
	Recursive bool
}

type ruleKey struct {
	kind Kind
	name string
}

// Validate returns an error for every name which is both allowed and
// blocked for the same kind.
func (p *Policy) Validate() error {
	dispositions := make(map[ruleKey][2]bool)
	var order []ruleKey
	for i, rule := range p.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d: empty name", i)
		}

		key := ruleKey{rule.Kind, rule.Name}
		seen, ok := dispositions[key]
		if !ok {
			order = append(order, key)
		}
		if rule.Disposition > Block {
			return fmt.Errorf("%s %q: invalid disposition %s", rule.Kind, rule.Name, rule.Disposition)
		}
		seen[rule.Disposition] = true
		dispositions[key] = seen
	}

	var err error
	for _, key := range order {
		if seen := dispositions[key]; seen[Allow] && seen[Block] {
			err = multierr.Append(err, fmt.Errorf("%s %q is both allowed and blocked", key.kind, key.name))
		}
	}
	return err
}

// Lookup returns the disposition for a declaration and whether any rule
// matched. Block rules win over Allow rules.
func (p *Policy) Lookup(kind Kind, name string) (Disposition, bool) {
	found := false
	for _, rule := range p.Rules {
		if rule.Kind != kind || rule.Name != name {
			continue
		}
		if rule.Disposition == Block {
			return Block, true
		}
		found = true
	}
	return Allow, found
}

// Blocked returns true if a declaration is explicitly blocked.
func (p *Policy) Blocked(kind Kind, name string) bool {
	d, ok := p.Lookup(kind, name)
	return ok && d == Block
}

// Allowed returns true if a declaration is explicitly allowed and not
// blocked.
func (p *Policy) Allowed(kind Kind, name string) bool {
	d, ok := p.Lookup(kind, name)
	return ok && d == Allow
}

// HasAllowlist returns true if the policy contains any Allow rules.
//
// Policies without an allowlist expose everything which isn't blocked.
func (p *Policy) HasAllowlist() bool {
	return slices.ContainsFunc(p.Rules, func(r Rule) bool {
		return r.Disposition == Allow
	})
}

// Names returns the names of all rules with the given kind and disposition,
// in table order and without duplicates.
func (p *Policy) Names(kind Kind, disposition Disposition) []string {
	var names []string
	for _, rule := range p.Rules {
		if rule.Kind == kind && rule.Disposition == disposition && !slices.Contains(names, rule.Name) {
			names = append(names, rule.Name)
		}
	}
	return names
}

// With returns a copy of the policy with additional rules.
func (p *Policy) With(rules ...Rule) *Policy {
	return &Policy{
		Rules:     slices.Concat(p.Rules, rules),
		Recursive: p.Recursive,
	}
}
