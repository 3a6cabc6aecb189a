// Package app implements the inventory ledger: the single writer of
// per-product available quantity. Everything that sells stock goes through
// Reserve; Release exists only to compensate a failed multi-line reservation.
package app

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// InsufficientStockError names the product that could not be reserved so
// callers can tell the buyer which line to shrink.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type Service struct {
	store StockStore
}

func NewService(store StockStore) *Service {
	return &Service{store: store}
}

func (s *Service) Available(ctx context.Context, productID string) (int, error) {
	return s.store.Available(ctx, productID)
}

// Reserve decrements available stock by qty, or fails with
// InsufficientStockError leaving the count untouched. Concurrent reserves
// against one product are serialized by the store's compare-and-decrement.
func (s *Service) Reserve(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	ok, err := s.store.Decrement(ctx, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		avail, err := s.store.Available(ctx, productID)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: avail}
	}
	return nil
}

// Release gives qty units back. Used only when a conversion rolls back.
func (s *Service) Release(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.store.Increment(ctx, productID, qty)
}
