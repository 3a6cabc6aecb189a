package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LW95x/marketplace-backend/internal/cart/domain"
	invapp "github.com/LW95x/marketplace-backend/internal/inventory/app"
	"github.com/LW95x/marketplace-backend/pkg/money"
	"github.com/google/uuid"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrConcurrentModification = errors.New("cart was modified concurrently")
)

type Service struct {
	repo     CartRepo
	products ProductReader
	log      *slog.Logger
}

func NewService(repo CartRepo, products ProductReader, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		log:      log,
	}
}

func (s *Service) Cart(ctx context.Context, buyerID string) (domain.Cart, error) {
	return s.repo.GetOrCreate(ctx, buyerID)
}

func (s *Service) Item(ctx context.Context, buyerID, itemID string) (domain.CartItem, error) {
	return s.repo.GetItem(ctx, buyerID, itemID)
}

// UpsertItem adds qty units of a product to the buyer's cart. When the
// product already has a line, the quantities combine and the combined total
// is what gets validated against stock; the unit price stays the snapshot
// taken when the line was first added. Stock is read here, not reserved.
func (s *Service) UpsertItem(ctx context.Context, buyerID, productID string, qty int) (domain.CartItem, error) {
	if qty < 1 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	cart, err := s.repo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return domain.CartItem{}, err
	}

	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}

	item := domain.CartItem{
		ID:        uuid.NewString(),
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: product.Price,
	}

	if existing, ok := cart.ItemForProduct(productID); ok {
		item.ID = existing.ID
		item.Quantity = existing.Quantity + qty
		item.UnitPrice = existing.UnitPrice
		s.log.Info("product already in cart, combining quantities",
			slog.String("buyer_id", buyerID),
			slog.String("product_id", productID),
			slog.Int("quantity", item.Quantity))
	}

	if item.Quantity > product.Available {
		return domain.CartItem{}, &invapp.InsufficientStockError{
			ProductID: productID,
			Requested: item.Quantity,
			Available: product.Available,
		}
	}

	item.LineTotal = money.LineTotal(item.UnitPrice, item.Quantity)

	saved, err := s.repo.SaveItem(ctx, cart, item)
	if err != nil {
		return domain.CartItem{}, err
	}

	savedItem, ok := saved.Item(item.ID)
	if !ok {
		return item, nil
	}
	return savedItem, nil
}

// SetItemQuantity replaces (or, when additive, adds to) a line's quantity.
// The resulting quantity must stay within available stock.
func (s *Service) SetItemQuantity(ctx context.Context, buyerID, itemID string, qty int, additive bool) (domain.CartItem, error) {
	item, err := s.repo.GetItem(ctx, buyerID, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}

	newQty := qty
	if additive {
		newQty = item.Quantity + qty
	}
	if newQty < 1 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	product, err := s.products.Product(ctx, item.ProductID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if newQty > product.Available {
		return domain.CartItem{}, &invapp.InsufficientStockError{
			ProductID: item.ProductID,
			Requested: newQty,
			Available: product.Available,
		}
	}

	cart, err := s.repo.Get(ctx, buyerID)
	if err != nil {
		return domain.CartItem{}, err
	}

	item.Quantity = newQty
	item.LineTotal = money.LineTotal(item.UnitPrice, newQty)

	saved, err := s.repo.SaveItem(ctx, cart, item)
	if err != nil {
		return domain.CartItem{}, err
	}

	savedItem, ok := saved.Item(item.ID)
	if !ok {
		return item, nil
	}
	return savedItem, nil
}

// RemoveItem deletes a line from the buyer's cart and recomputes the total.
func (s *Service) RemoveItem(ctx context.Context, buyerID, itemID string) error {
	if _, err := s.repo.GetItem(ctx, buyerID, itemID); err != nil {
		return err
	}

	cart, err := s.repo.Get(ctx, buyerID)
	if err != nil {
		return err
	}

	_, err = s.repo.DeleteItem(ctx, cart, itemID)
	return err
}
