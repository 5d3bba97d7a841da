package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type selection struct {
	Store string `json:"store"`
}

func (c *cli) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Show or change the selected store",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the selected store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := selection{Store: c.app.SelectedStore(cmd.Context())}
			return c.emit(cmd, s, func(w io.Writer) {
				if s.Store == "" {
					fmt.Fprintln(w, "Všechny obchody")
					return
				}
				fmt.Fprintln(w, s.Store)
			})
		},
	}
	use := &cobra.Command{
		Use:   "use <store>",
		Short: "Select a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Selection.Set(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.emit(cmd, selection{Store: args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Vybrán obchod %s\n", args[0])
			})
		},
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the selection and show every store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Selection.Clear(cmd.Context()); err != nil {
				return err
			}
			return c.emit(cmd, selection{}, func(w io.Writer) {
				fmt.Fprintln(w, "Všechny obchody")
			})
		},
	}
	cmd.AddCommand(show, use, clearCmd)
	return cmd
}
