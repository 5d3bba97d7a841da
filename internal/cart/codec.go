package cart

import (
	"encoding/json"

	"storefront/pkg/domain"
)

// encodeItems renders the persisted form: a JSON array of {product, quantity}.
func encodeItems(items []domain.CartLineItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return json.Marshal(items)
}

// decodeItems parses persisted items and repairs invariants: lines with a
// quantity below one are dropped and a repeated product id keeps its first
// occurrence. dropped counts the discarded lines.
func decodeItems(b []byte) (items []domain.CartLineItem, dropped int, err error) {
	var raw []domain.CartLineItem
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, 0, err
	}
	seen := make(map[int64]struct{}, len(raw))
	items = make([]domain.CartLineItem, 0, len(raw))
	for _, line := range raw {
		if line.Quantity < 1 {
			dropped++
			continue
		}
		if _, dup := seen[line.Product.ID]; dup {
			dropped++
			continue
		}
		seen[line.Product.ID] = struct{}{}
		items = append(items, line)
	}
	return items, dropped, nil
}
