package categorytree

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"storefront/pkg/domain"
)

// DefaultLanguage drives the collation of pooled category names.
var DefaultLanguage = language.Czech

// NewCollator returns a collator for tag. Collators are not safe for
// concurrent use; create one per goroutine.
func NewCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag)
}

// PoolAllStores builds the aggregate "all stores" view: every store's roots
// stamped with their store, concatenated in store-name order and stable
// sorted by name with c (Czech when nil). Duplicates are kept.
func PoolAllStores(byStore domain.CategoriesByStore, c *collate.Collator) []domain.CategoryNode {
	if c == nil {
		c = NewCollator(DefaultLanguage)
	}
	stores := make([]string, 0, len(byStore))
	for name := range byStore {
		stores = append(stores, name)
	}
	sort.Strings(stores)

	var pooled []domain.CategoryNode
	for _, name := range stores {
		pooled = append(pooled, stampStore(byStore[name], name)...)
	}
	sort.SliceStable(pooled, func(i, j int) bool {
		return c.CompareString(pooled[i].Name, pooled[j].Name) < 0
	})
	return pooled
}

// Roots selects the roots to display. A selected store yields its roots in
// backend order; no selection pools every store; an unknown store yields nil,
// which renders as the empty state.
func Roots(byStore domain.CategoriesByStore, selectedStore string, c *collate.Collator) []domain.CategoryNode {
	if selectedStore == "" {
		return PoolAllStores(byStore, c)
	}
	roots, ok := byStore[selectedStore]
	if !ok {
		return nil
	}
	return stampStore(roots, selectedStore)
}
