package query

import (
	"strings"

	"github.com/nlstn/go-odata-filter/internal/metadata"
)

// NavigationPath is a chain of navigation properties starting at the root
// resource type, e.g. Order/Customer.
type NavigationPath []metadata.ResourceProperty

// Names returns the property names of the path.
func (p NavigationPath) Names() []string {
	names := make([]string, len(p))
	for i, prop := range p {
		names[i] = prop.Name()
	}
	return names
}

func (p NavigationPath) String() string {
	return strings.Join(p.Names(), "/")
}

// CollectNavigationPaths returns the distinct navigation paths read by the
// property accesses in e, in the order they first appear. For each access
// the path is the leading run of navigation properties of its chain, so
// Category/Supplier/Name yields Category/Supplier and Name yields nothing.
func CollectNavigationPaths(e Expression) []NavigationPath {
	var paths []NavigationPath
	seen := make(map[string]bool)

	Walk(e, func(node Expression) bool {
		access, ok := node.(*PropertyAccessExpr)
		if !ok {
			return true
		}

		var path NavigationPath
		for _, prop := range access.Path() {
			if !prop.Kind().IsNavigation() {
				break
			}
			path = append(path, prop)
		}
		if len(path) > 0 {
			if key := path.String(); !seen[key] {
				seen[key] = true
				paths = append(paths, path)
			}
		}
		// Parents are prefixes of this chain.
		return false
	})

	return paths
}
