package adapter

import (
	"context"

	invapp "github.com/LW95x/marketplace-backend/internal/inventory/app"
)

// InventoryLedger binds the converter to the inventory service.
type InventoryLedger struct {
	svc *invapp.Service
}

func NewInventoryLedger(svc *invapp.Service) *InventoryLedger {
	return &InventoryLedger{svc: svc}
}

func (l *InventoryLedger) Available(ctx context.Context, productID string) (int, error) {
	return l.svc.Available(ctx, productID)
}

func (l *InventoryLedger) Reserve(ctx context.Context, productID string, qty int) error {
	return l.svc.Reserve(ctx, productID, qty)
}

func (l *InventoryLedger) Release(ctx context.Context, productID string, qty int) error {
	return l.svc.Release(ctx, productID, qty)
}
