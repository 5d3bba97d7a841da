package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"storefront/internal/categorytree"
	"storefront/pkg/domain"
)

type lineJSON struct {
	domain.CartLineItem
	LineTotal int64 `json:"lineTotal"`
}

type cartJSON struct {
	Items          []lineJSON `json:"items"`
	IsOpen         bool       `json:"isOpen"`
	Total          int64      `json:"total"`
	TotalFormatted string     `json:"totalFormatted"`
	ItemCount      int        `json:"itemCount"`
}

func (s *Server) cartBody() cartJSON {
	st := s.app.Cart.State()
	out := cartJSON{
		Items:          make([]lineJSON, 0, len(st.Items)),
		IsOpen:         st.IsOpen,
		Total:          st.Total,
		TotalFormatted: domain.FormatPrice(st.Total),
		ItemCount:      st.ItemCount,
	}
	for _, it := range st.Items {
		out.Items = append(out.Items, lineJSON{CartLineItem: it, LineTotal: it.LineTotal()})
	}
	return out
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cartBody())
}

type addItemRequest struct {
	Slug     string          `json:"slug"`
	Product  *domain.Product `json:"product"`
	Quantity *int            `json:"quantity"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if qty < 1 {
		s.fail(w, badRequest{msg: "quantity must be at least 1"})
		return
	}
	var p domain.Product
	switch {
	case req.Product != nil:
		p = *req.Product
	case req.Slug != "":
		var err error
		if p, err = s.app.Backend.ProductBySlug(r.Context(), req.Slug); err != nil {
			s.fail(w, err)
			return
		}
	default:
		s.fail(w, badRequest{msg: "slug or product is required"})
		return
	}
	if err := s.app.Cart.AddItemN(r.Context(), p, qty); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cartBody())
}

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, badRequest{msg: "invalid product id"}
	}
	return id, nil
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var req quantityRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.Quantity == nil {
		s.fail(w, badRequest{msg: "quantity is required"})
		return
	}
	if err := s.app.Cart.UpdateQuantity(r.Context(), id, *req.Quantity); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cartBody())
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.app.Cart.RemoveItem(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cartBody())
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Cart.ClearCart(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cartBody())
}

type openRequest struct {
	Open bool `json:"open"`
}

func (s *Server) setOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.app.Cart.SetOpen(req.Open)
	writeJSON(w, http.StatusOK, s.cartBody())
}

type rowJSON struct {
	Key          domain.NodeKey `json:"key"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Store        string         `json:"store,omitempty"`
	ProductCount int            `json:"productCount"`
	Depth        int            `json:"depth"`
	Active       bool           `json:"active"`
	HasChildren  bool           `json:"hasChildren"`
	Expanded     bool           `json:"expanded"`
}

type treeJSON struct {
	Empty  bool      `json:"empty"`
	Active string    `json:"active"`
	Policy string    `json:"policy"`
	Rows   []rowJSON `json:"rows"`
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	roots, err := s.app.CategoryRoots(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	active := categorytree.ActiveSlug(r.URL.Query())
	view := s.app.Tree.Render(roots, active)
	out := treeJSON{Empty: view.Empty, Active: active, Policy: s.app.Tree.Policy().String(), Rows: make([]rowJSON, 0, len(view.Rows))}
	for _, row := range view.Rows {
		out.Rows = append(out.Rows, rowJSON{
			Key:          row.Key,
			Name:         row.Node.Name,
			Slug:         row.Node.Slug,
			Store:        row.Node.Store,
			ProductCount: row.Node.ProductCount,
			Depth:        row.Depth,
			Active:       row.Active,
			HasChildren:  row.HasChildren,
			Expanded:     row.Expanded,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type toggleJSON struct {
	Key      domain.NodeKey `json:"key"`
	Expanded bool           `json:"expanded"`
}

func (s *Server) toggleCategory(w http.ResponseWriter, r *http.Request) {
	roots, err := s.app.CategoryRoots(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	key := domain.NodeKey(mux.Vars(r)["key"])
	node, ok := categorytree.FindKey(roots, key)
	if !ok {
		s.fail(w, errNoSuchNode)
		return
	}
	active := categorytree.ActiveSlug(r.URL.Query())
	writeJSON(w, http.StatusOK, toggleJSON{Key: key, Expanded: s.app.Tree.Toggle(node, active)})
}

type storeJSON struct {
	Store string `json:"store"`
}

func (s *Server) getStore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeJSON{Store: s.app.SelectedStore(r.Context())})
}

func (s *Server) putStore(w http.ResponseWriter, r *http.Request) {
	var req storeJSON
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.app.Selection.Set(r.Context(), req.Store); err != nil {
		s.fail(w, err)
		return
	}
	// Manual expansion belongs to the tree that was on screen.
	s.app.Tree.Reset()
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) deleteStore(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Selection.Clear(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	s.app.Tree.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getQuote(w http.ResponseWriter, _ *http.Request) {
	q, err := s.app.Checkout.Quote()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.app.Checkout.PlaceOrder(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
