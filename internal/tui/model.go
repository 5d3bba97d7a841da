// Package tui implements the terminal storefront browser: a category tree
// pane, the product list of the active category and the cart panel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storefront/internal/cart"
	"storefront/internal/categorytree"
	"storefront/pkg/domain"
)

// Catalog supplies the data the browser displays.
type Catalog interface {
	CategoryRoots(ctx context.Context) ([]domain.CategoryNode, error)
	Products(ctx context.Context, category string) ([]domain.Product, error)
}

type pane int

const (
	paneTree pane = iota
	paneProducts
	paneCart
)

type rootsMsg struct {
	roots []domain.CategoryNode
	err   error
}

type productsMsg struct {
	category string
	products []domain.Product
	err      error
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	catalog Catalog
	cart    *cart.Store
	tree    *categorytree.Presenter
	styles  Styles

	roots   []domain.CategoryNode
	view    categorytree.View
	active  string
	loading bool

	products []domain.Product

	focus      pane
	treeCursor int
	prodCursor int
	cartCursor int

	status string
	err    error
	width  int
	height int
}

// New returns a browser model. ctx bounds every catalog request and cart write.
func New(ctx context.Context, catalog Catalog, c *cart.Store, tree *categorytree.Presenter) Model {
	return Model{
		ctx:     ctx,
		catalog: catalog,
		cart:    c,
		tree:    tree,
		styles:  DefaultStyles(),
		loading: true,
	}
}

// Init loads the category roots.
func (m Model) Init() tea.Cmd {
	return m.loadRoots()
}

func (m Model) loadRoots() tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		roots, err := catalog.CategoryRoots(ctx)
		return rootsMsg{roots: roots, err: err}
	}
}

func (m Model) loadProducts(slug string) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		products, err := catalog.Products(ctx, slug)
		return productsMsg{category: slug, products: products, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case rootsMsg:
		m.loading = false
		m.err = msg.err
		m.roots = msg.roots
		m.tree.Reset()
		m.refresh()
		return m, nil
	case productsMsg:
		// Responses for a category the user already left are dropped.
		if msg.category != m.active {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.products = msg.products
		m.prodCursor = 0
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.focus = m.nextPane()
		return m, nil
	case "c":
		if m.cart.Toggle() {
			m.focus = paneCart
		} else if m.focus == paneCart {
			m.focus = paneProducts
		}
		return m, nil
	case "r":
		m.loading = true
		return m, m.loadRoots()
	}

	switch m.focus {
	case paneTree:
		return m.treeKey(msg)
	case paneProducts:
		return m.productKey(msg)
	case paneCart:
		return m.cartKey(msg)
	}
	return m, nil
}

func (m Model) nextPane() pane {
	switch m.focus {
	case paneTree:
		return paneProducts
	case paneProducts:
		if m.cart.IsOpen() {
			return paneCart
		}
	}
	return paneTree
}

func (m Model) treeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.view.Rows
	switch msg.String() {
	case "up", "k":
		m.treeCursor = clampCursor(m.treeCursor-1, len(rows))
	case "down", "j":
		m.treeCursor = clampCursor(m.treeCursor+1, len(rows))
	case " ", "right", "left", "l", "h":
		if row, ok := m.currentRow(); ok {
			m.tree.Toggle(row.Node, m.active)
			m.refresh()
		}
	case "enter":
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		var cmd tea.Cmd
		outcome := m.tree.Select(row.Node, m.active, func(slug string) {
			m.active = slug
			m.products = nil
			m.loading = true
			m.focus = paneProducts
			cmd = m.loadProducts(slug)
		})
		if outcome == categorytree.OutcomeNavigated {
			m.cart.SetOpen(false)
		}
		m.refresh()
		return m, cmd
	}
	return m, nil
}

func (m Model) productKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.prodCursor = clampCursor(m.prodCursor-1, len(m.products))
	case "down", "j":
		m.prodCursor = clampCursor(m.prodCursor+1, len(m.products))
	case "enter", "a", "+":
		if m.prodCursor < len(m.products) {
			p := m.products[m.prodCursor]
			m.setResult(m.cart.AddItem(m.ctx, p), fmt.Sprintf("%s přidáno do košíku", p.Name))
		}
	}
	return m, nil
}

func (m Model) cartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.cart.Items()
	switch msg.String() {
	case "up", "k":
		m.cartCursor = clampCursor(m.cartCursor-1, len(items))
	case "down", "j":
		m.cartCursor = clampCursor(m.cartCursor+1, len(items))
	case "+", "=":
		if line, ok := lineAt(items, m.cartCursor); ok {
			m.setResult(m.cart.UpdateQuantity(m.ctx, line.Product.ID, line.Quantity+1), "")
		}
	case "-":
		if line, ok := lineAt(items, m.cartCursor); ok {
			m.setResult(m.cart.UpdateQuantity(m.ctx, line.Product.ID, line.Quantity-1), "")
		}
	case "d", "x", "delete":
		if line, ok := lineAt(items, m.cartCursor); ok {
			m.setResult(m.cart.RemoveItem(m.ctx, line.Product.ID), line.Product.Name+" odebráno")
		}
	case "C":
		m.setResult(m.cart.ClearCart(m.ctx), "košík vyprázdněn")
	}
	m.cartCursor = clampCursor(m.cartCursor, len(m.cart.Items()))
	return m, nil
}

// setResult reports a cart mutation. Persist failures leave the change
// applied, so they are shown as warnings next to the status.
func (m *Model) setResult(err error, ok string) {
	m.err = nil
	m.status = ok
	if err != nil {
		if errors.Is(err, cart.ErrPersist) {
			m.status = strings.TrimSpace(ok + " (neuloženo)")
		}
		m.err = err
	}
}

func (m *Model) refresh() {
	m.view = m.tree.Render(m.roots, m.active)
	m.treeCursor = clampCursor(m.treeCursor, len(m.view.Rows))
}

func (m Model) currentRow() (categorytree.Row, bool) {
	if m.treeCursor < 0 || m.treeCursor >= len(m.view.Rows) {
		return categorytree.Row{}, false
	}
	return m.view.Rows[m.treeCursor], true
}

func lineAt(items []domain.CartLineItem, i int) (domain.CartLineItem, bool) {
	if i < 0 || i >= len(items) {
		return domain.CartLineItem{}, false
	}
	return items[i], true
}

func clampCursor(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// View renders the browser.
func (m Model) View() string {
	s := m.styles
	header := s.Title.Render("storefront") + "  " + s.Muted.Render(fmt.Sprintf("košík: %d ks · %s", m.cart.ItemCount(), domain.FormatPrice(m.cart.Total())))

	panes := []string{
		m.paneStyle(paneTree).Render(m.renderTree()),
		m.paneStyle(paneProducts).Render(m.renderProducts()),
	}
	if m.cart.IsOpen() {
		panes = append(panes, m.paneStyle(paneCart).Render(m.renderCart()))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	footer := s.Status.Render("tab přepnout · enter vybrat · mezerník rozbalit · c košík · q konec")
	if m.err != nil {
		footer = s.Error.Render(m.err.Error()) + "\n" + footer
	} else if m.status != "" {
		footer = s.Status.Render(m.status) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) paneStyle(p pane) lipgloss.Style {
	if m.focus == p {
		return m.styles.Focused
	}
	return m.styles.Pane
}

func (m Model) renderTree() string {
	s := m.styles
	if m.loading && m.roots == nil {
		return s.Muted.Render("Načítám kategorie…")
	}
	if m.view.Empty {
		return s.Muted.Render("Žádné kategorie")
	}
	var b strings.Builder
	for i, row := range m.view.Rows {
		marker := "  "
		if row.HasChildren {
			marker = "▸ "
			if row.Expanded {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", row.Depth) + marker + row.Node.Name
		if row.Node.ProductCount > 0 {
			line += s.Muted.Render(fmt.Sprintf(" (%d)", row.Node.ProductCount))
		}
		if row.Active {
			line = s.Active.Render(line)
		}
		if i == m.treeCursor && m.focus == paneTree {
			line = s.Cursor.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderProducts() string {
	s := m.styles
	switch {
	case m.active == "":
		return s.Muted.Render("Vyberte kategorii")
	case m.loading:
		return s.Muted.Render("Načítám produkty…")
	case len(m.products) == 0:
		return s.Muted.Render("Žádné produkty")
	}
	var b strings.Builder
	for i, p := range m.products {
		line := p.Name + "  " + s.Price.Render(domain.FormatPrice(p.ResolvedPrice().Amount))
		if pct, ok := p.DiscountPercent(); ok {
			line += " " + s.Discount.Render(fmt.Sprintf("-%d%%", pct))
		}
		if unit, ok := p.UnitPriceLabel(); ok {
			line += " " + s.Muted.Render(unit)
		}
		if i == m.prodCursor && m.focus == paneProducts {
			line = s.Cursor.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderCart() string {
	s := m.styles
	items := m.cart.Items()
	if len(items) == 0 {
		return s.Muted.Render("Košík je prázdný")
	}
	var b strings.Builder
	for i, it := range items {
		line := fmt.Sprintf("%dx %s  %s", it.Quantity, it.Product.Name, domain.FormatPrice(it.LineTotal()))
		if i == m.cartCursor && m.focus == paneCart {
			line = s.Cursor.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(s.Price.Render("Celkem " + domain.FormatPrice(m.cart.Total())))
	return b.String()
}

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, catalog Catalog, c *cart.Store, tree *categorytree.Presenter) error {
	p := tea.NewProgram(New(ctx, catalog, c, tree), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
