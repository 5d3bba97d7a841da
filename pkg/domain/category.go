package domain

import "strconv"

// CategoryNode is one node of a store's category hierarchy. The hierarchy is
// acyclic because it is sourced from the backend.
type CategoryNode struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	ProductCount  int            `json:"productCount"`
	Subcategories []CategoryNode `json:"subcategories,omitempty"`
	// Store is stamped by clients that pool several stores' trees.
	Store string `json:"store,omitempty"`
}

// HasChildren reports whether the node renders a disclosure control.
func (n CategoryNode) HasChildren() bool { return len(n.Subcategories) > 0 }

// NodeKey identifies a node across pooled store trees.
type NodeKey string

// Key returns the node identity used for expansion state.
func (n CategoryNode) Key() NodeKey {
	return NodeKey(n.Store + ":" + strconv.FormatInt(n.ID, 10))
}

// CategoriesByStore maps a store name to its ordered root categories.
type CategoriesByStore map[string][]CategoryNode

// StoreInfo is one entry of the stores listing.
type StoreInfo struct {
	Store string `json:"store"`
	Count int    `json:"count"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ProductPage is a paginated product listing.
type ProductPage struct {
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}
