package adapter

import (
	"context"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	checkoutapp "github.com/LW95x/marketplace-backend/internal/checkout/app"
)

type CartServiceSource struct {
	svc *cartapp.Service
}

func NewCartServiceSource(svc *cartapp.Service) *CartServiceSource {
	return &CartServiceSource{svc: svc}
}

func (r *CartServiceSource) Cart(ctx context.Context, buyerID string) (checkoutapp.Cart, error) {
	cart, err := r.svc.Cart(ctx, buyerID)
	if err != nil {
		return checkoutapp.Cart{}, err
	}

	items := make([]checkoutapp.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, checkoutapp.CartItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}

	return checkoutapp.Cart{
		ID:      cart.ID,
		BuyerID: cart.BuyerID,
		Total:   cart.TotalPrice,
		Version: cart.Version,
		Items:   items,
	}, nil
}
