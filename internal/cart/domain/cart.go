package domain

import (
	"github.com/LW95x/marketplace-backend/pkg/money"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	// UnitPrice is the product price snapshotted when the line was first
	// added; later catalog price edits do not touch it.
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Cart struct {
	ID         string
	BuyerID    string
	Items      []CartItem
	TotalPrice decimal.Decimal
	// Version backs optimistic locking: writes are conditional on it and
	// lose with ErrConcurrentModification when another writer got there first.
	Version int64
}

// Total recomputes the cart total from the line items it currently holds.
// The persisted TotalPrice must always equal this.
func (c Cart) Total() decimal.Decimal {
	totals := make([]decimal.Decimal, len(c.Items))
	for i, it := range c.Items {
		totals[i] = it.LineTotal
	}
	return money.Sum(totals...)
}

func (c Cart) Item(itemID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) ItemForProduct(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}
