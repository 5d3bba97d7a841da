package categorytree

import (
	"sync"

	"storefront/pkg/domain"
)

// Outcome reports what Select did.
type Outcome int

const (
	// OutcomeNavigated means the navigation callback ran.
	OutcomeNavigated Outcome = iota
	// OutcomeToggled means the active node's expansion flipped instead.
	OutcomeToggled
)

// Row is one visible line of the rendered tree.
type Row struct {
	Key         domain.NodeKey
	Node        domain.CategoryNode
	Depth       int
	Active      bool
	HasChildren bool
	Expanded    bool
}

// View is the result of a render pass.
type View struct {
	Empty    bool
	Rows     []Row
	Expanded map[domain.NodeKey]bool
}

// Presenter holds the expand/collapse history of one render session. It is
// safe for concurrent use.
type Presenter struct {
	mu     sync.Mutex
	policy Policy
	state  map[domain.NodeKey]bool
}

// NewPresenter returns a Presenter with no manual history.
func NewPresenter(policy Policy) *Presenter {
	return &Presenter{policy: policy, state: make(map[domain.NodeKey]bool)}
}

// Policy returns the presenter's expansion policy.
func (p *Presenter) Policy() Policy { return p.policy }

// Toggle flips the displayed expansion of node and returns the new displayed
// value. Leaves are a no-op. Toggling never navigates.
func (p *Presenter) Toggle(node domain.CategoryNode, active string) bool {
	if !node.HasChildren() {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state[node.Key()] = !expanded(node, active, p.state, p.policy)
	return expanded(node, active, p.state, p.policy)
}

// Select handles activation of a node's link. The active node with children
// toggles instead of navigating; any other node calls onNavigate (which may
// be nil) with its slug.
func (p *Presenter) Select(node domain.CategoryNode, active string, onNavigate func(slug string)) Outcome {
	if IsActive(node.Slug, active) && node.HasChildren() {
		p.Toggle(node, active)
		return OutcomeToggled
	}
	if onNavigate != nil {
		onNavigate(node.Slug)
	}
	return OutcomeNavigated
}

// Expanded reports the displayed expansion of node.
func (p *Presenter) Expanded(node domain.CategoryNode, active string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return expanded(node, active, p.state, p.policy)
}

// Render computes the visible rows for roots under the active selection.
// Under PolicySticky a node forced open stays open after the selection moves
// elsewhere, until it is toggled closed.
func (p *Presenter) Render(roots []domain.CategoryNode, active string) View {
	if len(roots) == 0 {
		return View{Empty: true, Expanded: map[domain.NodeKey]bool{}}
	}
	p.mu.Lock()
	exp := Expansion(roots, active, p.state, p.policy)
	if p.policy == PolicySticky {
		for k, v := range exp {
			if v {
				p.state[k] = true
			}
		}
	}
	p.mu.Unlock()

	var rows []Row
	var walk func(nodes []domain.CategoryNode, depth int)
	walk = func(nodes []domain.CategoryNode, depth int) {
		for _, n := range nodes {
			open := exp[n.Key()]
			rows = append(rows, Row{
				Key:         n.Key(),
				Node:        n,
				Depth:       depth,
				Active:      IsActive(n.Slug, active),
				HasChildren: n.HasChildren(),
				Expanded:    open,
			})
			if open {
				walk(n.Subcategories, depth+1)
			}
		}
	}
	walk(roots, 0)
	return View{Rows: rows, Expanded: exp}
}

// Reset forgets all manual history, starting a new render session.
func (p *Presenter) Reset() {
	p.mu.Lock()
	p.state = make(map[domain.NodeKey]bool)
	p.mu.Unlock()
}
