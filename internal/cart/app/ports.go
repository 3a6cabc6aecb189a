package app

import (
	"context"

	"github.com/LW95x/marketplace-backend/internal/cart/domain"
	"github.com/shopspring/decimal"
)

// CartRepo persists one cart per buyer. SaveItem and DeleteItem each run as
// a single transaction that writes the line item, recomputes the cart total
// from the rows present at commit time, and bumps the cart version; a stale
// cart.Version fails with ErrConcurrentModification.
type CartRepo interface {
	GetOrCreate(ctx context.Context, buyerID string) (domain.Cart, error)
	Get(ctx context.Context, buyerID string) (domain.Cart, error)
	GetItem(ctx context.Context, buyerID, itemID string) (domain.CartItem, error)
	SaveItem(ctx context.Context, cart domain.Cart, item domain.CartItem) (domain.Cart, error)
	DeleteItem(ctx context.Context, cart domain.Cart, itemID string) (domain.Cart, error)
}

// Product is the slice of the catalog the cart needs: a price to snapshot
// and the stock left to validate against.
type Product struct {
	ID        string
	Price     decimal.Decimal
	Available int
}

type ProductReader interface {
	Product(ctx context.Context, productID string) (Product, error)
}
