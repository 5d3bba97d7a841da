package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySuffix is appended to every formatted amount. The space is a
// no-break space, as in Czech number formatting.
const CurrencySuffix = "\u00a0Kč"

var czech = message.NewPrinter(language.Czech)

// FormatPrice renders minor units as Czech koruna with two decimals,
// using Czech digit grouping and decimal separator.
func FormatPrice(cents int64) string {
	return czech.Sprintf("%.2f", float64(cents)/100) + CurrencySuffix
}
