package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/cart"
	"storefront/pkg/domain"
)

// emit prints v as indented JSON under --json, otherwise renders it as text.
func (c *cli) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func printCart(w io.Writer, st cart.State) {
	if len(st.Items) == 0 {
		fmt.Fprintln(w, "Košík je prázdný")
	} else {
		fmt.Fprintln(w, "ID\tPRODUKT\tKS\tCENA\tCELKEM")
		for _, it := range st.Items {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
				it.Product.ID, it.Product.Name, it.Quantity,
				domain.FormatPrice(it.Product.ResolvedPrice().Amount),
				domain.FormatPrice(it.LineTotal()))
		}
	}
	fmt.Fprintf(w, "\t\t%d\t\t%s\n", st.ItemCount, domain.FormatPrice(st.Total))
	if st.IsOpen {
		fmt.Fprintln(w, "(panel otevřen)")
	}
}

func printProducts(w io.Writer, page domain.ProductPage) {
	fmt.Fprintln(w, "ID\tNÁZEV\tCENA\tSLEVA\tSLUG")
	for _, p := range page.Data {
		discount := ""
		if pct, ok := p.DiscountPercent(); ok {
			discount = fmt.Sprintf("-%d%%", pct)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, domain.FormatPrice(p.ResolvedPrice().Amount), discount, p.Slug)
	}
	pg := page.Pagination
	fmt.Fprintf(w, "strana %d/%d, celkem %d\n", pg.Page, pg.TotalPages, pg.Total)
}
