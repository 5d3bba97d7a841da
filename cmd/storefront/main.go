// Command storefront drives the grocery storefront core from the terminal:
// catalog lookups, the cart, store selection, checkout, a local JSON API
// and an interactive browser.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/shutdown"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// cli carries the per-invocation state shared by subcommands.
type cli struct {
	configPath string
	verbose    bool
	jsonOut    bool

	cfg    *config.Config
	logger *zap.Logger
	app    *app.App

	// appOpts is used by tests to inject storage.
	appOpts []app.Option
}

// run executes one command line. The app container is closed on every path,
// including command failures.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...app.Option) (err error) {
	c := &cli{appOpts: opts}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer func() {
		if cerr := c.teardown(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Grocery storefront: catalog, cart and checkout",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfigPath(), "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print machine readable JSON")

	root.AddCommand(
		c.storesCmd(),
		c.productsCmd(),
		c.productCmd(),
		c.categoriesCmd(),
		c.storeCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.serveCmd(),
		c.browseCmd(),
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv(config.EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return "storefront.yaml"
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, c.verbose)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger, c.appOpts...)
	if err != nil {
		_ = logger.Sync()
		return err
	}
	c.cfg, c.logger, c.app = cfg, logger, a
	return nil
}

func (c *cli) teardown() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}
