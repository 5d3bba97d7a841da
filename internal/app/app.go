// Package app wires the storefront components into one container that is
// built once per process and handed to every surface.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/categorytree"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/observability"
	"storefront/internal/preferences"
	"storefront/internal/storage"
	"storefront/pkg/domain"
)

// App holds the long-lived components.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Metrics   *observability.Prometheus
	Storage   storage.Store
	Cart      *cart.Store
	Selection *preferences.StoreSelection
	Backend   *backend.Client
	Tree      *categorytree.Presenter
	Checkout  *checkout.Service

	lang      language.Tag
	closeOnce sync.Once
}

// Option customises construction, mainly for tests.
type Option func(*options)

type options struct {
	store      storage.Store
	httpClient *http.Client
}

// WithStore uses kv instead of opening the configured driver.
func WithStore(kv storage.Store) Option {
	return func(o *options) { o.store = kv }
}

// WithHTTPClient sets the client used for backend calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New opens storage and builds every component from cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	policy, err := categorytree.ParsePolicy(cfg.Tree.Policy)
	if err != nil {
		return nil, err
	}
	lang := categorytree.DefaultLanguage
	if cfg.Tree.Language != "" {
		if lang, err = language.Parse(cfg.Tree.Language); err != nil {
			return nil, fmt.Errorf("tree language: %w", err)
		}
	}

	kv := o.store
	if kv == nil {
		kv, err = storage.Open(ctx, storageOptions(cfg.Storage))
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	metrics := observability.NewPrometheus("storefront")

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.APITimeout()}
	}
	client, err := backend.New(cfg.API.BaseURL,
		backend.WithHTTPClient(httpClient),
		backend.WithCache(cfg.API.CacheSize, cfg.CacheTTL()),
		backend.WithLogger(log.Named("backend")),
		backend.WithRecorder(metrics),
	)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	cartOpts := []cart.Option{cart.WithLogger(log.Named("cart")), cart.WithRecorder(metrics)}
	if cfg.Cart.StorageKey != "" {
		cartOpts = append(cartOpts, cart.WithKey(cfg.Cart.StorageKey))
	}
	if cfg.Cart.MaxQuantity > 0 {
		cartOpts = append(cartOpts, cart.WithMaxQuantity(cfg.Cart.MaxQuantity))
	}
	c, err := cart.New(ctx, kv, cartOpts...)
	if err != nil {
		// The cart is usable and empty; a broken backend must not block startup.
		log.Warn("cart restore failed", zap.Error(err))
	}

	return &App{
		Config:    cfg,
		Log:       log,
		Metrics:   metrics,
		Storage:   kv,
		Cart:      c,
		Selection: preferences.NewStoreSelection(kv),
		Backend:   client,
		Tree:      categorytree.NewPresenter(policy),
		Checkout: checkout.New(c,
			checkout.WithShipping(cfg.Checkout.Shipping),
			checkout.WithDelay(cfg.CheckoutDelay()),
			checkout.WithLogger(log.Named("checkout")),
			checkout.WithRecorder(metrics)),
		lang: lang,
	}, nil
}

func storageOptions(c config.StorageConfig) storage.Options {
	return storage.Options{
		Driver:      storage.Driver(c.Driver),
		FSRoot:      c.FSRoot,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		S3: storage.S3Options{
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Prefix:          c.S3.Prefix,
			Endpoint:        c.S3.Endpoint,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			PathStyle:       c.S3.PathStyle,
		},
	}
}

// SelectedStore returns the persisted store selection, or "" for all stores.
// Storage errors degrade to no selection.
func (a *App) SelectedStore(ctx context.Context) string {
	name, _, err := a.Selection.Get(ctx)
	if err != nil {
		a.Log.Debug("selected store unreadable", zap.Error(err))
		return ""
	}
	return name
}

// CategoryRoots fetches the category trees and picks the roots for the
// current store selection.
func (a *App) CategoryRoots(ctx context.Context) ([]domain.CategoryNode, error) {
	store := a.SelectedStore(ctx)
	byStore, err := a.Backend.Categories(ctx, store)
	if err != nil {
		return nil, err
	}
	return categorytree.Roots(byStore, store, categorytree.NewCollator(a.lang)), nil
}

// Close releases storage and idle backend connections. It is safe to call
// more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.Backend.Close()
		err = a.Storage.Close()
		_ = a.Log.Sync()
	})
	return err
}
