package main

import (
	"github.com/spf13/cobra"

	"storefront/internal/httpapi"
	"storefront/internal/tui"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.cfg.HTTP.Addr
			}
			return httpapi.Serve(cmd.Context(), c.app, addr, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr from config)")
	return cmd
}

func (c *cli) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse categories and fill the cart interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(cmd.Context(), tui.NewCatalog(c.app), c.app.Cart, c.app.Tree)
		},
	}
}
