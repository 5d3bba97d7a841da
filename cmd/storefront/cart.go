package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the cart",
	}
	showState := func(cmd *cobra.Command) error {
		st := c.app.Cart.State()
		return c.emit(cmd, st, func(w io.Writer) { printCart(w, st) })
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return showState(cmd) },
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <slug>",
		Short: "Add a product by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if qty < 1 {
				return fmt.Errorf("invalid quantity %d: must be at least 1", qty)
			}
			ctx := cmd.Context()
			p, err := c.app.Backend.ProductBySlug(ctx, args[0])
			if err != nil {
				return err
			}
			if err := c.app.Cart.AddItemN(ctx, p, qty); err != nil {
				return err
			}
			return showState(cmd)
		},
	}
	add.Flags().IntVarP(&qty, "quantity", "n", 1, "how many to add")

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Cart.RemoveItem(cmd.Context(), id); err != nil {
				return err
			}
			return showState(cmd)
		},
	}

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a line quantity; zero or less removes the line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := c.app.Cart.UpdateQuantity(cmd.Context(), id, n); err != nil {
				return err
			}
			return showState(cmd)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Cart.ClearCart(cmd.Context()); err != nil {
				return err
			}
			return showState(cmd)
		},
	}

	// Panel visibility is not persisted; these only shape this invocation's
	// output and exist for parity with the interactive surfaces.
	open := &cobra.Command{
		Use:   "open",
		Short: "Print the cart with the panel open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Cart.SetOpen(true)
			return showState(cmd)
		},
	}
	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Print the cart with the panel closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Cart.SetOpen(false)
			return showState(cmd)
		},
	}

	cmd.AddCommand(show, add, remove, set, clearCmd, open, closeCmd)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
