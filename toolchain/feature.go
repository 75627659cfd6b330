package toolchain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/demikernel/dpdkgen/symbols"
)

// Feature is an optional part of DPDK which needs additional libraries and
// possibly additional symbols.
type Feature struct {
	Name      string
	Libraries []string
	Rules     []symbols.Rule
}

// MLX5 links the Mellanox ConnectX poll mode driver and its dependencies.
var MLX5 = Feature{
	Name: "mlx5",
	Libraries: []string{
		"rte_net_mlx5",
		"rte_bus_pci",
		"rte_bus_vdev",
		"rte_common_mlx5",
	},
}

var featuresByName = map[string]Feature{
	MLX5.Name: MLX5,
}

// FeatureNames returns the names of all known features, sorted.
func FeatureNames() []string {
	names := make([]string, 0, len(featuresByName))
	for name := range featuresByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFeatures turns names into features. Empty names are ignored.
func ParseFeatures(names ...string) ([]Feature, error) {
	var features []Feature
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		f, ok := featuresByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown feature %q (known: %s)", name, strings.Join(FeatureNames(), ", "))
		}
		features = append(features, f)
	}
	return features, nil
}

// FeatureRules returns the symbol rules of all features.
func FeatureRules(features []Feature) []symbols.Rule {
	var rules []symbols.Rule
	for _, f := range features {
		rules = append(rules, f.Rules...)
	}
	return rules
}
