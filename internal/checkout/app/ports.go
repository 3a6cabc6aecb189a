package app

import (
	"context"

	orderdomain "github.com/LW95x/marketplace-backend/internal/order/domain"
	"github.com/shopspring/decimal"
)

// Cart is the converter's view of a buyer's cart: snapshots and totals,
// nothing else.
type Cart struct {
	ID      string
	BuyerID string
	Total   decimal.Decimal
	Version int64
	Items   []CartItem
}

type CartItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type CartSource interface {
	Cart(ctx context.Context, buyerID string) (Cart, error)
}

// Ledger is the inventory boundary. Reserve is atomic per product; Release
// only compensates reservations made earlier in the same conversion.
type Ledger interface {
	Available(ctx context.Context, productID string) (int, error)
	Reserve(ctx context.Context, productID string, qty int) error
	Release(ctx context.Context, productID string, qty int) error
}

// OrderPlacer persists the order and clears the source cart as one unit of
// work: either both happen or neither. The clear is conditional on the
// version the cart snapshot was taken at, so a line added to the cart after
// the snapshot fails the placement instead of vanishing.
type OrderPlacer interface {
	Place(ctx context.Context, order orderdomain.Order, cart Cart) (orderdomain.Order, error)
}
