package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/LW95x/marketplace-backend/internal/checkout/domain"
	orderdomain "github.com/LW95x/marketplace-backend/internal/order/domain"
	"github.com/LW95x/marketplace-backend/pkg/money"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyCart      = errors.New("shopping cart is empty")
	ErrInvalidAddress = errors.New("address must be 1 to 255 characters")
	// ErrTotalMismatch means the independently recomputed order total did
	// not equal the cart total. That is a consistency defect, never
	// something to paper over.
	ErrTotalMismatch = errors.New("order total does not match cart total")
)

type Service struct {
	cart   CartSource
	ledger Ledger
	orders OrderPlacer
	log    *slog.Logger

	maxConcurrent int
}

func NewService(cart CartSource, ledger Ledger, orders OrderPlacer, log *slog.Logger, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	return &Service{
		cart:          cart,
		ledger:        ledger,
		orders:        orders,
		log:           log,
		maxConcurrent: maxConcurrent,
	}
}

// Quote previews the conversion: the cart's lines and total plus each
// product's current availability, looked up concurrently. Nothing is
// reserved.
func (s *Service) Quote(ctx context.Context, buyerID string) (domain.Quote, error) {
	cart, err := s.cart.Cart(ctx, buyerID)
	if err != nil {
		return domain.Quote{}, err
	}
	if len(cart.Items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(cart.Items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range cart.Items {
		g.Go(func() error {
			it := cart.Items[idx]

			avail, err := s.ledger.Available(ctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("availability of product %s: %w", it.ProductID, err)
			}

			lines[idx] = domain.QuoteLine{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				LineTotal: it.LineTotal,
				Available: avail,
				InStock:   avail >= it.Quantity,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	return domain.Quote{Lines: lines, Total: cart.Total}, nil
}

// Convert turns the buyer's cart into a pending order. Stock for every line
// is reserved in ascending product id order; any shortfall rolls back the
// reservations already taken and leaves the cart untouched. The order
// insert and the cart clear share one transaction in the placer.
func (s *Service) Convert(ctx context.Context, buyerID, address string) (orderdomain.Order, error) {
	address = strings.TrimSpace(address)
	if address == "" || len(address) > orderdomain.MaxAddressLen {
		return orderdomain.Order{}, ErrInvalidAddress
	}

	cart, err := s.cart.Cart(ctx, buyerID)
	if err != nil {
		return orderdomain.Order{}, err
	}
	if len(cart.Items) == 0 {
		return orderdomain.Order{}, ErrEmptyCart
	}

	// Fixed global reservation order keeps concurrent conversions that
	// share products from deadlocking against each other.
	lines := make([]CartItem, len(cart.Items))
	copy(lines, cart.Items)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var reserved []CartItem
	for _, li := range lines {
		if err := s.ledger.Reserve(ctx, li.ProductID, li.Quantity); err != nil {
			s.rollback(ctx, reserved)
			return orderdomain.Order{}, err
		}
		reserved = append(reserved, li)
	}

	order := orderdomain.Order{
		ID:      uuid.NewString(),
		BuyerID: buyerID,
		Date:    time.Now().UTC(),
		Status:  orderdomain.StatusPending,
		Address: address,
	}
	for _, it := range cart.Items {
		order.Items = append(order.Items, orderdomain.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: money.LineTotal(it.UnitPrice, it.Quantity),
		})
	}

	// Recompute the total from scratch and check it against the cart's.
	// A mismatch would mean a rounding or consistency bug; persisting a
	// wrong total is worse than failing the conversion.
	order.TotalPrice = order.Total()
	if !order.TotalPrice.Equal(cart.Total) {
		s.rollback(ctx, reserved)
		s.log.Error("order total diverged from cart total",
			slog.String("buyer_id", buyerID),
			slog.String("cart_total", cart.Total.String()),
			slog.String("order_total", order.TotalPrice.String()))
		return orderdomain.Order{}, ErrTotalMismatch
	}

	placed, err := s.orders.Place(ctx, order, cart)
	if err != nil {
		s.rollback(ctx, reserved)
		return orderdomain.Order{}, err
	}

	s.log.Info("cart converted to order",
		slog.String("buyer_id", buyerID),
		slog.String("order_id", placed.ID),
		slog.String("total", placed.TotalPrice.String()),
		slog.Int("lines", len(placed.Items)))

	return placed, nil
}

// rollback releases reservations in reverse order. Failures are logged and
// the remaining releases still run; an unreleased reservation is lost stock
// and needs the loudest signal we have.
func (s *Service) rollback(ctx context.Context, reserved []CartItem) {
	for i := len(reserved) - 1; i >= 0; i-- {
		li := reserved[i]
		if err := s.ledger.Release(ctx, li.ProductID, li.Quantity); err != nil {
			s.log.Error("stock release failed during rollback",
				slog.String("product_id", li.ProductID),
				slog.Int("quantity", li.Quantity),
				slog.Any("err", err))
		}
	}
}
