package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/backend"
	"storefront/internal/categorytree"
	"storefront/pkg/domain"
)

func (c *cli) storesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List stores and their product counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := c.app.Backend.Stores(cmd.Context())
			if err != nil {
				return err
			}
			selected := c.app.SelectedStore(cmd.Context())
			return c.emit(cmd, stores, func(w io.Writer) {
				fmt.Fprintln(w, "OBCHOD\tPRODUKTY\t")
				for _, s := range stores {
					mark := ""
					if s.Store == selected {
						mark = "*"
					}
					fmt.Fprintf(w, "%s\t%d\t%s\n", s.Store, s.Count, mark)
				}
			})
		},
	}
}

func (c *cli) productsCmd() *cobra.Command {
	var (
		q     backend.ProductQuery
		promo bool
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered by category or search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if q.Store == "" && !all {
				q.Store = c.app.SelectedStore(ctx)
			}
			if cmd.Flags().Changed("promo") {
				q.InPromotion = &promo
			}
			page, err := c.app.Backend.Products(ctx, q)
			if err != nil {
				return err
			}
			return c.emit(cmd, page, func(w io.Writer) { printProducts(w, page) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Store, "store", "", "store to list (defaults to the selected store)")
	f.BoolVar(&all, "all-stores", false, "ignore the selected store")
	f.StringVar(&q.Category, "category", "", "category slug")
	f.StringVarP(&q.Search, "search", "s", "", "search text")
	f.IntVar(&q.Page, "page", 0, "page number")
	f.IntVar(&q.Limit, "limit", 50, "page size")
	f.BoolVar(&promo, "promo", false, "only products in promotion")
	return cmd
}

func (c *cli) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <slug>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Backend.ProductBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, p, func(w io.Writer) { printProduct(w, p) })
		},
	}
}

func printProduct(w io.Writer, p domain.Product) {
	fmt.Fprintf(w, "%s\t(%s)\n", p.Name, p.Slug)
	fmt.Fprintf(w, "Cena\t%s\n", domain.FormatPrice(p.ResolvedPrice().Amount))
	if pct, ok := p.DiscountPercent(); ok {
		fmt.Fprintf(w, "Sleva\t-%d%%\n", pct)
	}
	if s, ok := p.Savings(); ok {
		fmt.Fprintf(w, "Ušetříte\t%s\n", domain.FormatPrice(s))
	}
	if label, ok := p.UnitPriceLabel(); ok {
		fmt.Fprintf(w, "Jednotková cena\t%s\n", label)
	}
	if p.Category != "" {
		fmt.Fprintf(w, "Kategorie\t%s\n", p.Category)
	}
	if p.Store != "" {
		fmt.Fprintf(w, "Obchod\t%s\n", p.Store)
	}
	if p.DescriptionShort != nil {
		fmt.Fprintf(w, "\n%s\n", *p.DescriptionShort)
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	var (
		active string
		store  string
		flat   bool
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show the category tree for the selected store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var roots []domain.CategoryNode
			if store != "" {
				byStore, err := c.app.Backend.Categories(ctx, store)
				if err != nil {
					return err
				}
				roots = categorytree.Roots(byStore, store, nil)
			} else {
				var err error
				if roots, err = c.app.CategoryRoots(ctx); err != nil {
					return err
				}
			}
			if flat {
				entries := categorytree.Flatten(roots)
				return c.emit(cmd, entries, func(w io.Writer) {
					for _, e := range entries {
						fmt.Fprintf(w, "%s\t%s\n", strings.Join(append(e.Path, e.Node.Name), " › "), e.Node.Slug)
					}
				})
			}
			view := c.app.Tree.Render(roots, active)
			return c.emit(cmd, view.Rows, func(w io.Writer) { printTree(w, view) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&active, "active", "", "active category slug")
	f.StringVar(&store, "store", "", "store to show (defaults to the selected store)")
	f.BoolVar(&flat, "flat", false, "list every category with its path")
	return cmd
}

func printTree(w io.Writer, view categorytree.View) {
	if view.Empty {
		fmt.Fprintln(w, "Žádné kategorie")
		return
	}
	for _, row := range view.Rows {
		marker := "  "
		if row.HasChildren {
			marker = "▸ "
			if row.Expanded {
				marker = "▾ "
			}
		}
		name := row.Node.Name
		if row.Active {
			name = "[" + name + "]"
		}
		fmt.Fprintf(w, "%s%s%s\t%d\t%s\n", strings.Repeat("  ", row.Depth), marker, name, row.Node.ProductCount, row.Node.Slug)
	}
}
