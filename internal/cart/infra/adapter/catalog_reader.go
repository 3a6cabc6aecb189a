package adapter

import (
	"context"
	"errors"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	catalogapp "github.com/LW95x/marketplace-backend/internal/catalog/app"
	invapp "github.com/LW95x/marketplace-backend/internal/inventory/app"
)

// CatalogProductReader feeds the cart the catalog's price and stock view.
type CatalogProductReader struct {
	svc *catalogapp.Service
}

func NewCatalogProductReader(svc *catalogapp.Service) *CatalogProductReader {
	return &CatalogProductReader{svc: svc}
}

func (r *CatalogProductReader) Product(ctx context.Context, productID string) (cartapp.Product, error) {
	p, err := r.svc.GetProduct(ctx, productID)
	if errors.Is(err, catalogapp.ErrNotFound) {
		return cartapp.Product{}, invapp.ErrNotFound
	}
	if err != nil {
		return cartapp.Product{}, err
	}

	return cartapp.Product{
		ID:        p.ID,
		Price:     p.Price,
		Available: p.Quantity,
	}, nil
}
