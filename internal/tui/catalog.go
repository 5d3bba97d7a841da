package tui

import (
	"context"

	"storefront/internal/app"
	"storefront/internal/backend"
	"storefront/pkg/domain"
)

// productLimit is how many products a category listing shows.
const productLimit = 50

// NewCatalog adapts the app container to the browser.
func NewCatalog(a *app.App) Catalog { return appCatalog{a: a} }

type appCatalog struct{ a *app.App }

func (c appCatalog) CategoryRoots(ctx context.Context) ([]domain.CategoryNode, error) {
	return c.a.CategoryRoots(ctx)
}

func (c appCatalog) Products(ctx context.Context, category string) ([]domain.Product, error) {
	page, err := c.a.Backend.Products(ctx, backend.ProductQuery{
		Store:    c.a.SelectedStore(ctx),
		Category: category,
		Limit:    productLimit,
	})
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}
