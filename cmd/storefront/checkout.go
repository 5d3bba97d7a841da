package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storefront/internal/checkout"
	"storefront/pkg/domain"
)

func (c *cli) checkoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Order summary and placement",
	}
	quote := &cobra.Command{
		Use:   "quote",
		Short: "Print the order summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := c.app.Checkout.Quote()
			if err != nil {
				return err
			}
			return c.emit(cmd, q, func(w io.Writer) { printQuote(w, q) })
		},
	}
	place := &cobra.Command{
		Use:   "place",
		Short: "Place the order and empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := c.app.Checkout.PlaceOrder(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, order, func(w io.Writer) {
				printQuote(w, order.Quote)
				fmt.Fprintf(w, "\nObjednávka %s přijata\n", order.ID)
			})
		},
	}
	cmd.AddCommand(quote, place)
	return cmd
}

func printQuote(w io.Writer, q checkout.Quote) {
	for _, l := range q.Lines {
		fmt.Fprintf(w, "%dx %s\t%s\n", l.Quantity, l.Name, domain.FormatPrice(l.LineTotal))
	}
	fmt.Fprintf(w, "Mezisoučet\t%s\n", domain.FormatPrice(q.Subtotal))
	fmt.Fprintf(w, "Doprava\t%s\n", domain.FormatPrice(q.Shipping))
	fmt.Fprintf(w, "Celkem\t%s\n", domain.FormatPrice(q.Total))
}
