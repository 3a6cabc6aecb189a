package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/LW95x/marketplace-backend/internal/order/domain"
)

var (
	ErrNotFound               = errors.New("order not found")
	ErrInvalidStatus          = errors.New("invalid order status")
	ErrInvalidAddress         = errors.New("address must be 1 to 255 characters")
	ErrEmptyPatch             = errors.New("nothing to update")
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// UpdatePatch carries the optional fields of an order update. Nil means
// leave the field alone.
type UpdatePatch struct {
	Status  *string
	Address *string
}

type Service struct {
	repo OrderRepo
	log  *slog.Logger
}

func NewService(repo OrderRepo, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Order(ctx context.Context, buyerID, orderID string) (domain.Order, error) {
	return s.repo.Get(ctx, buyerID, orderID)
}

func (s *Service) Orders(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.repo.List(ctx, buyerID)
}

// Update patches status and/or address. Any status may move to any other
// status; line items and inventory are never touched here.
func (s *Service) Update(ctx context.Context, buyerID, orderID string, patch UpdatePatch) (domain.Order, error) {
	if patch.Status == nil && patch.Address == nil {
		return domain.Order{}, ErrEmptyPatch
	}

	order, err := s.repo.Get(ctx, buyerID, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if patch.Status != nil {
		status, err := domain.ParseStatus(*patch.Status)
		if err != nil {
			return domain.Order{}, ErrInvalidStatus
		}
		order.Status = status
	}

	if patch.Address != nil {
		address := strings.TrimSpace(*patch.Address)
		if address == "" || len(address) > domain.MaxAddressLen {
			return domain.Order{}, ErrInvalidAddress
		}
		order.Address = address
	}

	return s.repo.Update(ctx, order)
}

// Remove deletes the order and its line items. Stock sold under the order
// stays sold: cancellation does not restock the ledger.
func (s *Service) Remove(ctx context.Context, buyerID, orderID string) error {
	order, err := s.repo.Get(ctx, buyerID, orderID)
	if err != nil {
		return err
	}

	s.log.Info("deleting order",
		slog.String("order_id", order.ID),
		slog.String("buyer_id", buyerID),
		slog.String("status", string(order.Status)))

	return s.repo.Delete(ctx, order.ID)
}
