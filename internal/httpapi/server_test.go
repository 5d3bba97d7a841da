package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/app"
	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/storage"
	"storefront/pkg/domain"
)

func fakeCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products/slug/jablka", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Product{ID: 1, Name: "Jablka", Slug: "jablka", Price: domain.Cents(1190)})
	})
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.CategoriesByStore{
			"BILLA": {
				{ID: 1, Name: "Ovoce", Slug: "ovoce", Subcategories: []domain.CategoryNode{
					{ID: 2, Name: "Jablka", Slug: "jablka"},
					{ID: 3, Name: "Hrušky", Slug: "hrusky"},
				}},
				{ID: 4, Name: "Mléčné", Slug: "mlecne", Subcategories: []domain.CategoryNode{{ID: 5, Name: "Sýry", Slug: "syry"}}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = fakeCatalog(t).URL
	cfg.Checkout.Delay = "0s"
	a, err := app.New(context.Background(), cfg, nil, app.WithStore(storage.NewMemory()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v), rec.Body.String())
	return v
}

func TestCartLifecycle(t *testing.T) {
	h := NewHandler(newTestApp(t))

	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", `{"slug":"jablka","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := decodeBody[cartJSON](t, rec)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, int64(2380), c.Total)
	assert.Equal(t, "23,80\u00a0Kč", c.TotalFormatted)

	rec = do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"id":9,"name":"Sýr","regularPrice":500}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c = decodeBody[cartJSON](t, rec)
	assert.Equal(t, int64(2880), c.Total)
	assert.Equal(t, 3, c.ItemCount)

	rec = do(t, h, http.MethodPut, "/api/v1/cart/items/9", `{"quantity":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decodeBody[cartJSON](t, rec).ItemCount)

	rec = do(t, h, http.MethodPut, "/api/v1/cart/items/9", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[cartJSON](t, rec).Items, 1)

	rec = do(t, h, http.MethodDelete, "/api/v1/cart/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[cartJSON](t, rec).Items)

	rec = do(t, h, http.MethodDelete, "/api/v1/cart/items/1", "")
	assert.Equal(t, http.StatusOK, rec.Code, "removing twice is idempotent")
}

func TestCartOpenAndClear(t *testing.T) {
	h := NewHandler(newTestApp(t))
	rec := do(t, h, http.MethodPut, "/api/v1/cart/open", `{"open":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[cartJSON](t, rec).IsOpen)

	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"slug":"jablka"}`)
	rec = do(t, h, http.MethodDelete, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c := decodeBody[cartJSON](t, rec)
	assert.Empty(t, c.Items)
	assert.True(t, c.IsOpen)
}

func TestCartBadRequests(t *testing.T) {
	h := NewHandler(newTestApp(t))
	for _, tc := range []struct{ method, target, body string }{
		{http.MethodPost, "/api/v1/cart/items", `{}`},
		{http.MethodPost, "/api/v1/cart/items", `{"bogus":1}`},
		{http.MethodPut, "/api/v1/cart/items/1", `{}`},
		{http.MethodPut, "/api/v1/cart/items/1", `not json`},
		{http.MethodPut, "/api/v1/cart/open", ``},
		{http.MethodPost, "/api/v1/cart/items", `{"slug":"jablka","quantity":0}`},
		{http.MethodPost, "/api/v1/cart/items", `{"slug":"jablka","quantity":-3}`},
	} {
		rec := do(t, h, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		assert.Equal(t, "INVALID_ARGUMENT", decodeBody[errorBody](t, rec).Error.Code)
	}
	assert.Empty(t, decodeBody[cartJSON](t, do(t, h, http.MethodGet, "/api/v1/cart", "")).Items)
}

func TestAddUnknownProductIs404(t *testing.T) {
	h := NewHandler(newTestApp(t))
	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", `{"slug":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoriesRenderAndToggle(t *testing.T) {
	h := NewHandler(newTestApp(t))

	rec := do(t, h, http.MethodGet, "/api/v1/categories?category=jablka", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decodeBody[treeJSON](t, rec)
	assert.Equal(t, "sticky", tree.Policy)
	var slugs []string
	for _, r := range tree.Rows {
		slugs = append(slugs, r.Slug)
	}
	// Pooled view sorts roots by Czech collation: Mléčné before Ovoce.
	assert.Equal(t, []string{"mlecne", "ovoce", "jablka", "hrusky"}, slugs)
	assert.True(t, tree.Rows[2].Active)

	rec = do(t, h, http.MethodPost, "/api/v1/categories/BILLA:4/toggle?category=jablka", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, toggleJSON{Key: "BILLA:4", Expanded: true}, decodeBody[toggleJSON](t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/categories?category=jablka", "")
	assert.Len(t, decodeBody[treeJSON](t, rec).Rows, 5)

	rec = do(t, h, http.MethodPost, "/api/v1/categories/BILLA:99/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreSelection(t *testing.T) {
	h := NewHandler(newTestApp(t))
	assert.Equal(t, storeJSON{}, decodeBody[storeJSON](t, do(t, h, http.MethodGet, "/api/v1/store", "")))

	rec := do(t, h, http.MethodPut, "/api/v1/store", `{"store":"BILLA"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storeJSON{Store: "BILLA"}, decodeBody[storeJSON](t, do(t, h, http.MethodGet, "/api/v1/store", "")))

	rec = do(t, h, http.MethodDelete, "/api/v1/store", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, storeJSON{}, decodeBody[storeJSON](t, do(t, h, http.MethodGet, "/api/v1/store", "")))
}

func TestCheckout(t *testing.T) {
	h := NewHandler(newTestApp(t))

	rec := do(t, h, http.MethodGet, "/api/v1/checkout/quote", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMPTY_CART", decodeBody[errorBody](t, rec).Error.Code)

	do(t, h, http.MethodPost, "/api/v1/cart/items", `{"slug":"jablka"}`)
	rec = do(t, h, http.MethodGet, "/api/v1/checkout/quote", "")
	require.Equal(t, http.StatusOK, rec.Code)
	q := decodeBody[checkout.Quote](t, rec)
	assert.Equal(t, int64(1190+4900), q.Total)

	rec = do(t, h, http.MethodPost, "/api/v1/checkout/orders", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, decodeBody[checkout.Order](t, rec).ID)
	assert.Empty(t, decodeBody[cartJSON](t, do(t, h, http.MethodGet, "/api/v1/cart", "")).Items)
}

func TestHealthMetricsAndUnknownRoutes(t *testing.T) {
	h := NewHandler(newTestApp(t))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)

	do(t, h, http.MethodGet, "/api/v1/cart", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_operations_total")
	assert.Contains(t, rec.Body.String(), `operation="http GET /api/v1/cart"`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/nope", "").Code)

	rec = do(t, h, http.MethodPatch, "/api/v1/cart", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{badRequest{msg: "x"}, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{fmt.Errorf("%w: 0", cart.ErrInvalidQuantity), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{checkout.ErrEmptyCart, http.StatusConflict, "EMPTY_CART"},
		{&backend.StatusError{Code: 404}, http.StatusNotFound, "NOT_FOUND"},
		{&backend.StatusError{Code: 500}, http.StatusBadGateway, "BACKEND"},
		{fmt.Errorf("%w: disk", cart.ErrPersist), http.StatusInternalServerError, "PERSIST_FAILED"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, a, "127.0.0.1:0", func(addr net.Addr) { addrCh <- addr }) }()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
