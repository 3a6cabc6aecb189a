package app

import (
	"context"

	"github.com/LW95x/marketplace-backend/internal/order/domain"
)

type OrderRepo interface {
	Get(ctx context.Context, buyerID, orderID string) (domain.Order, error)
	List(ctx context.Context, buyerID string) ([]domain.Order, error)
	// Update persists status and address only; line items never change.
	Update(ctx context.Context, o domain.Order) (domain.Order, error)
	// Delete removes the order and its line items in one transaction.
	Delete(ctx context.Context, orderID string) error
}
