// Package backend is the REST client for the external catalog backend. It
// coalesces identical in-flight requests and keeps a small TTL cache of
// response bodies keyed by request URL.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/observability"
	"storefront/pkg/domain"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 30 * time.Second
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 512
)

// Client talks to the catalog backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	cache     *expirable.LRU[string, []byte]
	cacheSize int
	cacheTTL  time.Duration
	group     singleflight.Group
	log       *zap.Logger
	rec       observability.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithCache sizes the response cache. A size of zero or less disables it.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r observability.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.rec = r
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client for the backend at baseURL, e.g. http://localhost:3001.
// An enabled cache runs one expiry goroutine that lives as long as the
// process; create one client and share it.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: "storefront",
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
		log:       zap.NewNop(),
		rec:       observability.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize > 0 {
		c.cache = expirable.NewLRU[string, []byte](c.cacheSize, nil, c.cacheTTL)
	}
	return c, nil
}

// ProductQuery filters the product listing. Zero values are omitted.
type ProductQuery struct {
	Store       string
	Category    string
	Search      string
	Page        int
	Limit       int
	InPromotion *bool
}

func (q ProductQuery) values() url.Values {
	v := PageQuery{Page: q.Page, Limit: q.Limit, Store: q.Store}.values()
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.InPromotion != nil {
		v.Set("inPromotion", strconv.FormatBool(*q.InPromotion))
	}
	return v
}

// PageQuery paginates a category's product listing.
type PageQuery struct {
	Page  int
	Limit int
	Store string
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Store != "" {
		v.Set("store", q.Store)
	}
	return v
}

// Stores lists the stores with their product counts.
func (c *Client) Stores(ctx context.Context) ([]domain.StoreInfo, error) {
	var out []domain.StoreInfo
	err := c.getJSON(ctx, "backend.stores", "/api/stores", nil, &out)
	return out, err
}

// Products returns one page of the product listing.
func (c *Client) Products(ctx context.Context, q ProductQuery) (domain.ProductPage, error) {
	var out domain.ProductPage
	err := c.getJSON(ctx, "backend.products", "/api/products", q.values(), &out)
	return out, err
}

// Categories returns category trees keyed by store. An empty store asks for
// every store.
func (c *Client) Categories(ctx context.Context, store string) (domain.CategoriesByStore, error) {
	v := url.Values{}
	if store != "" {
		v.Set("store", store)
	}
	out := domain.CategoriesByStore{}
	err := c.getJSON(ctx, "backend.categories", "/api/categories", v, &out)
	return out, err
}

// ProductBySlug fetches a single product. A missing product yields an error
// matching ErrNotFound.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	var out domain.Product
	err := c.getJSON(ctx, "backend.product", "/api/products/slug/"+url.PathEscape(slug), nil, &out)
	return out, err
}

// ProductsByCategory returns one page of a category's products.
func (c *Client) ProductsByCategory(ctx context.Context, slug string, q PageQuery) (domain.ProductPage, error) {
	var out domain.ProductPage
	err := c.getJSON(ctx, "backend.category_products", "/api/categories/"+url.PathEscape(slug)+"/products", q.values(), &out)
	return out, err
}

// Invalidate drops every cached response.
func (c *Client) Invalidate() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// endpoint joins the escaped path onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	raw := strings.TrimRight(c.base.EscapedPath(), "/") + path
	if p, err := url.PathUnescape(raw); err == nil {
		u.Path = p
	}
	u.RawPath = raw
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	return observability.Time(ctx, c.rec, op, func() error {
		key := c.endpoint(path, query)
		body, err := c.fetch(ctx, key, path)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("backend: decode %s: %w", path, err)
		}
		return nil
	})
}

func (c *Client) fetch(ctx context.Context, key, path string) ([]byte, error) {
	if c.cache != nil {
		if b, ok := c.cache.Get(key); ok {
			c.log.Debug("cache hit", zap.String("url", key))
			return b, nil
		}
	}
	// The shared fetch outlives any single caller; each caller stops
	// waiting on its own context.
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout())
		defer cancel()
		b, err := c.do(fctx, key, path)
		if err == nil && c.cache != nil {
			c.cache.Add(key, b)
		}
		return b, err
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("backend: get %s: %w", path, ctx.Err())
	case res := <-ch:
		if res.Shared {
			c.log.Debug("coalesced request", zap.String("url", key))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) fetchTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return defaultTimeout
}

func (c *Client) do(ctx context.Context, key, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend request failed", zap.String("url", key), zap.Error(err))
		return nil, fmt.Errorf("backend: get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(snippet))}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read %s: %w", path, err)
	}
	return b, nil
}
