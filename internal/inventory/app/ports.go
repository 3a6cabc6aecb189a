package app

import "context"

// StockStore is the storage primitive behind the ledger. Decrement must be
// an atomic compare-and-decrement: it reports false, without changing
// anything, when fewer than qty units are available.
type StockStore interface {
	Available(ctx context.Context, productID string) (int, error)
	Decrement(ctx context.Context, productID string, qty int) (bool, error)
	Increment(ctx context.Context, productID string, qty int) error
}
