// Package categorytree derives the presentation of a store's category
// hierarchy: which node is active, which nodes are expanded along the active
// path, and the manual expand/collapse history of a render session.
package categorytree

import "storefront/pkg/domain"

// IsActive reports whether slug is the active selection. Matching is exact;
// an empty active selection matches nothing.
func IsActive(slug, active string) bool {
	return active != "" && slug == active
}

// containsActive reports whether any transitive descendant of n is active.
func containsActive(n domain.CategoryNode, active string) bool {
	for _, child := range n.Subcategories {
		if IsActive(child.Slug, active) || containsActive(child, active) {
			return true
		}
	}
	return false
}

// AutoExpanded reports whether n is forced open by the active selection:
// it has children and either it or one of its descendants is active.
func AutoExpanded(n domain.CategoryNode, active string) bool {
	if !n.HasChildren() || active == "" {
		return false
	}
	return IsActive(n.Slug, active) || containsActive(n, active)
}

// Flattened is one node of a pre-order walk together with its depth and the
// names of its ancestors.
type Flattened struct {
	Node  domain.CategoryNode
	Depth int
	Path  []string
}

// Flatten returns every node in pre-order, as used by search suggestions and
// the command menu.
func Flatten(roots []domain.CategoryNode) []Flattened {
	var out []Flattened
	var walk func(nodes []domain.CategoryNode, depth int, path []string)
	walk = func(nodes []domain.CategoryNode, depth int, path []string) {
		for _, n := range nodes {
			out = append(out, Flattened{Node: n, Depth: depth, Path: append([]string(nil), path...)})
			walk(n.Subcategories, depth+1, append(path, n.Name))
		}
	}
	walk(roots, 0, nil)
	return out
}

// Find returns the first node in pre-order whose slug equals slug.
func Find(roots []domain.CategoryNode, slug string) (domain.CategoryNode, bool) {
	for _, n := range roots {
		if n.Slug == slug {
			return n, true
		}
		if found, ok := Find(n.Subcategories, slug); ok {
			return found, true
		}
	}
	return domain.CategoryNode{}, false
}

// FindKey returns the node in pre-order whose identity is key.
func FindKey(roots []domain.CategoryNode, key domain.NodeKey) (domain.CategoryNode, bool) {
	for _, n := range roots {
		if n.Key() == key {
			return n, true
		}
		if found, ok := FindKey(n.Subcategories, key); ok {
			return found, true
		}
	}
	return domain.CategoryNode{}, false
}

// stampStore returns a deep copy of nodes with Store set on every node.
func stampStore(nodes []domain.CategoryNode, store string) []domain.CategoryNode {
	if nodes == nil {
		return nil
	}
	out := make([]domain.CategoryNode, len(nodes))
	for i, n := range nodes {
		n.Store = store
		n.Subcategories = stampStore(n.Subcategories, store)
		out[i] = n
	}
	return out
}
