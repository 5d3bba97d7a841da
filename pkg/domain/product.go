// Package domain defines the storefront value types shared by the cart, the
// category tree and the backend client. Everything here is owned by the
// external catalog backend and treated as read-only by this module.
package domain

import "math"

// Product mirrors the backend product document. Monetary fields are integer
// minor units (haléře); nil means the backend did not supply the value.
type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CategorySlug string `json:"categorySlug"`
	Category     string `json:"category"`

	Price         *int64 `json:"price,omitempty"`
	RegularPrice  *int64 `json:"regularPrice,omitempty"`
	DiscountPrice *int64 `json:"discountPrice,omitempty"`
	PricePerUnit  *int64 `json:"pricePerUnit,omitempty"`
	UnitPrice     *int64 `json:"unitPrice,omitempty"`

	BaseUnitShort *string `json:"baseUnitShort"`
	BaseUnitLong  *string `json:"baseUnitLong"`

	Amount           string  `json:"amount"`
	VolumeLabelShort *string `json:"volumeLabelShort"`
	VolumeLabelLong  *string `json:"volumeLabelLong"`
	PackageLabel     *string `json:"packageLabel"`

	DescriptionShort     *string `json:"descriptionShort"`
	DescriptionLong      *string `json:"descriptionLong"`
	Brand                *string `json:"brand"`
	RegulatedProductName *string `json:"regulatedProductName"`
	ProductMarketing     *string `json:"productMarketing"`

	InPromotion bool     `json:"inPromotion"`
	Published   bool     `json:"published"`
	Images      []string `json:"images"`
	SKU         string   `json:"sku"`
	Store       string   `json:"store,omitempty"`
}

// PriceSource names the field a resolved price was taken from.
type PriceSource string

const (
	PriceFromPrice   PriceSource = "price"
	PriceFromRegular PriceSource = "regularPrice"
	PriceUnknown     PriceSource = "none"
)

// ResolvedPrice is the single price used for display, cart totals and checkout.
type ResolvedPrice struct {
	Amount int64
	Source PriceSource
}

// Known reports whether the backend supplied any usable price.
func (r ResolvedPrice) Known() bool { return r.Source != PriceUnknown }

// ResolvedPrice applies the precedence price, then regularPrice, then zero.
// Negative amounts are invalid backend data and are skipped like absent ones.
func (p Product) ResolvedPrice() ResolvedPrice {
	if p.Price != nil && *p.Price >= 0 {
		return ResolvedPrice{Amount: *p.Price, Source: PriceFromPrice}
	}
	if p.RegularPrice != nil && *p.RegularPrice >= 0 {
		return ResolvedPrice{Amount: *p.RegularPrice, Source: PriceFromRegular}
	}
	return ResolvedPrice{Source: PriceUnknown}
}

// DiscountPercent returns the rounded discount between regular and discount
// price. ok is false when either price is missing or the regular price is zero.
func (p Product) DiscountPercent() (pct int, ok bool) {
	if p.RegularPrice == nil || p.DiscountPrice == nil || *p.RegularPrice <= 0 {
		return 0, false
	}
	regular := float64(*p.RegularPrice)
	return int(math.Round((regular - float64(*p.DiscountPrice)) / regular * 100)), true
}

// Savings returns how much cheaper the current price is than the regular one.
func (p Product) Savings() (int64, bool) {
	if p.Price == nil || p.RegularPrice == nil || *p.RegularPrice <= *p.Price {
		return 0, false
	}
	return *p.RegularPrice - *p.Price, true
}

// UnitPriceLabel renders the per-unit price, e.g. "59,90 Kč / kg".
func (p Product) UnitPriceLabel() (string, bool) {
	if p.PricePerUnit == nil {
		return "", false
	}
	unit := "jednotka"
	if p.BaseUnitShort != nil && *p.BaseUnitShort != "" {
		unit = *p.BaseUnitShort
	}
	return FormatPrice(*p.PricePerUnit) + " / " + unit, true
}

// Cents is a small helper for building optional prices.
func Cents(v int64) *int64 { return &v }
