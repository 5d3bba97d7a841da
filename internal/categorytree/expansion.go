package categorytree

import (
	"fmt"

	"storefront/pkg/domain"
)

// Policy decides how manual toggles interact with auto-expansion.
type Policy int

const (
	// PolicySticky treats auto-expansion as authoritative: a node on the
	// active path is always open and cannot be manually collapsed.
	PolicySticky Policy = iota
	// PolicyManualWins lets a recorded manual toggle override auto-expansion.
	PolicyManualWins
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicySticky:
		return "sticky"
	case PolicyManualWins:
		return "manual-wins"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration name to a Policy. The empty string is sticky.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "sticky":
		return PolicySticky, nil
	case "manual-wins":
		return PolicyManualWins, nil
	default:
		return PolicySticky, fmt.Errorf("unknown expansion policy %q", s)
	}
}

// Expansion computes the expanded flag of every node with children from the
// tree, the active slug and the manual state. Leaves never appear.
func Expansion(roots []domain.CategoryNode, active string, manual map[domain.NodeKey]bool, policy Policy) map[domain.NodeKey]bool {
	out := make(map[domain.NodeKey]bool)
	var walk func(nodes []domain.CategoryNode)
	walk = func(nodes []domain.CategoryNode) {
		for _, n := range nodes {
			if !n.HasChildren() {
				continue
			}
			out[n.Key()] = expanded(n, active, manual, policy)
			walk(n.Subcategories)
		}
	}
	walk(roots)
	return out
}

func expanded(n domain.CategoryNode, active string, manual map[domain.NodeKey]bool, policy Policy) bool {
	if !n.HasChildren() {
		return false
	}
	auto := AutoExpanded(n, active)
	if policy == PolicyManualWins {
		if v, ok := manual[n.Key()]; ok {
			return v
		}
		return auto
	}
	return auto || manual[n.Key()]
}
