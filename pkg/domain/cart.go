package domain

// CartLineItem pairs a product with a quantity of at least one. A cart holds
// at most one line per product id.
type CartLineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is the resolved unit price multiplied by the quantity.
func (l CartLineItem) LineTotal() int64 {
	return l.Product.ResolvedPrice().Amount * int64(l.Quantity)
}
