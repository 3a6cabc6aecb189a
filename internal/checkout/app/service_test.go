package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	invapp "github.com/LW95x/marketplace-backend/internal/inventory/app"
	orderdomain "github.com/LW95x/marketplace-backend/internal/order/domain"
	"github.com/shopspring/decimal"
)

type fakeCartSource struct {
	cart Cart
	err  error
}

func (f *fakeCartSource) Cart(ctx context.Context, buyerID string) (Cart, error) {
	if f.err != nil {
		return Cart{}, f.err
	}
	return f.cart, f.err
}

// fakeLedger records every reserve/release so tests can assert ordering and
// conservation.
type fakeLedger struct {
	mu       sync.Mutex
	stock    map[string]int
	reserves []string
	releases []string
}

func newFakeLedger(stock map[string]int) *fakeLedger {
	return &fakeLedger{stock: stock}
}

func (f *fakeLedger) Available(ctx context.Context, productID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.stock[productID]
	if !ok {
		return 0, invapp.ErrNotFound
	}
	return qty, nil
}

func (f *fakeLedger) Reserve(ctx context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	have, ok := f.stock[productID]
	if !ok {
		return invapp.ErrNotFound
	}
	f.reserves = append(f.reserves, productID)
	if have < qty {
		return &invapp.InsufficientStockError{ProductID: productID, Requested: qty, Available: have}
	}
	f.stock[productID] = have - qty
	return nil
}

func (f *fakeLedger) Release(ctx context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, productID)
	f.stock[productID] += qty
	return nil
}

type fakeOrderPlacer struct {
	mu     sync.Mutex
	placed []orderdomain.Order
	carts  []string
	err    error
}

func (f *fakeOrderPlacer) Place(ctx context.Context, order orderdomain.Order, cart Cart) (orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orderdomain.Order{}, f.err
	}
	f.placed = append(f.placed, order)
	f.carts = append(f.carts, cart.ID)
	return order, nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func testCart(t *testing.T) Cart {
	t.Helper()
	return Cart{
		ID:      "cart-1",
		BuyerID: "buyer",
		Total:   dec(t, "35.00"),
		Items: []CartItem{
			{ProductID: "product-x", Quantity: 2, UnitPrice: dec(t, "10.00"), LineTotal: dec(t, "20.00")},
			{ProductID: "product-y", Quantity: 3, UnitPrice: dec(t, "5.00"), LineTotal: dec(t, "15.00")},
		},
	}
}

func newConverter(cart *fakeCartSource, ledger *fakeLedger, placer *fakeOrderPlacer) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(cart, ledger, placer, log, 4)
}

func TestConvertSuccess(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 5})
	placer := &fakeOrderPlacer{}
	svc := newConverter(&fakeCartSource{cart: testCart(t)}, ledger, placer)

	order, err := svc.Convert(ctx, "buyer", "1 Market Street")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if order.Status != orderdomain.StatusPending {
		t.Fatalf("status = %s, want PENDING", order.Status)
	}
	if order.Date.IsZero() || order.Date.Location() != time.UTC {
		t.Fatalf("date not UTC: %v", order.Date)
	}
	if !order.TotalPrice.Equal(dec(t, "35.00")) {
		t.Fatalf("order total = %s, want the cart's 35.00", order.TotalPrice)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(order.Items))
	}

	// Conservation: decrements equal converted quantities.
	if got := ledger.stock["product-x"]; got != 3 {
		t.Fatalf("product-x stock = %d, want 3", got)
	}
	if got := ledger.stock["product-y"]; got != 2 {
		t.Fatalf("product-y stock = %d, want 2", got)
	}
	if len(ledger.releases) != 0 {
		t.Fatalf("unexpected releases on success: %v", ledger.releases)
	}

	if len(placer.placed) != 1 || placer.carts[0] != "cart-1" {
		t.Fatalf("placer calls: %+v %+v", placer.placed, placer.carts)
	}
}

func TestConvertEmptyCart(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int{})
	placer := &fakeOrderPlacer{}
	svc := newConverter(&fakeCartSource{cart: Cart{ID: "cart-1", BuyerID: "buyer", Total: decimal.Zero}}, ledger, placer)

	_, err := svc.Convert(ctx, "buyer", "1 Market Street")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if len(ledger.reserves) != 0 {
		t.Fatalf("ledger touched for an empty cart: %v", ledger.reserves)
	}
	if len(placer.placed) != 0 {
		t.Fatal("order placed for an empty cart")
	}
}

func TestConvertRollsBackOnInsufficientStock(t *testing.T) {
	ctx := context.Background()
	// product-y is short; product-x reserves first (ascending id) and must
	// be released again.
	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 1})
	placer := &fakeOrderPlacer{}
	svc := newConverter(&fakeCartSource{cart: testCart(t)}, ledger, placer)

	_, err := svc.Convert(ctx, "buyer", "1 Market Street")

	var insufficient *invapp.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.ProductID != "product-y" {
		t.Fatalf("offending product = %s, want product-y", insufficient.ProductID)
	}

	if got := ledger.stock["product-x"]; got != 5 {
		t.Fatalf("product-x stock = %d, want its pre-call 5", got)
	}
	if got := ledger.stock["product-y"]; got != 1 {
		t.Fatalf("product-y stock = %d, want its pre-call 1", got)
	}
	if len(placer.placed) != 0 {
		t.Fatal("order placed despite failed reservation")
	}
}

func TestConvertReservesInAscendingProductOrder(t *testing.T) {
	ctx := context.Background()
	cart := testCart(t)
	// Present the lines out of order; reservation order must still be fixed.
	cart.Items[0], cart.Items[1] = cart.Items[1], cart.Items[0]

	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 5})
	svc := newConverter(&fakeCartSource{cart: cart}, ledger, &fakeOrderPlacer{})

	if _, err := svc.Convert(ctx, "buyer", "1 Market Street"); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := []string{"product-x", "product-y"}
	if len(ledger.reserves) != 2 || ledger.reserves[0] != want[0] || ledger.reserves[1] != want[1] {
		t.Fatalf("reserve order = %v, want %v", ledger.reserves, want)
	}
}

func TestConvertDetectsTotalMismatch(t *testing.T) {
	ctx := context.Background()
	cart := testCart(t)
	cart.Total = dec(t, "34.00") // corrupt persisted total

	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 5})
	placer := &fakeOrderPlacer{}
	svc := newConverter(&fakeCartSource{cart: cart}, ledger, placer)

	_, err := svc.Convert(ctx, "buyer", "1 Market Street")
	if !errors.Is(err, ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch, got %v", err)
	}

	// Reservations must have been compensated.
	if ledger.stock["product-x"] != 5 || ledger.stock["product-y"] != 5 {
		t.Fatalf("stock not restored: %v", ledger.stock)
	}
	if len(placer.placed) != 0 {
		t.Fatal("order persisted with a mismatched total")
	}
}

func TestConvertReleasesWhenPlacementFails(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 5})
	placer := &fakeOrderPlacer{err: errors.New("disk full")}
	svc := newConverter(&fakeCartSource{cart: testCart(t)}, ledger, placer)

	_, err := svc.Convert(ctx, "buyer", "1 Market Street")
	if err == nil {
		t.Fatal("expected placement error")
	}
	if ledger.stock["product-x"] != 5 || ledger.stock["product-y"] != 5 {
		t.Fatalf("stock not restored after failed placement: %v", ledger.stock)
	}
}

func TestConvertSurfacesCartConflict(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 5})
	placer := &fakeOrderPlacer{err: cartapp.ErrConcurrentModification}
	svc := newConverter(&fakeCartSource{cart: testCart(t)}, ledger, placer)

	// A line committed between the cart snapshot and placement fails the
	// version guard inside the placer; the caller must see the conflict and
	// the reservations must be handed back.
	_, err := svc.Convert(ctx, "buyer", "1 Market Street")
	if !errors.Is(err, cartapp.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if ledger.stock["product-x"] != 5 || ledger.stock["product-y"] != 5 {
		t.Fatalf("stock not restored after conflicted placement: %v", ledger.stock)
	}
}

func TestConvertAddressValidation(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 5})
	svc := newConverter(&fakeCartSource{cart: testCart(t)}, ledger, &fakeOrderPlacer{})

	t.Run("empty", func(t *testing.T) {
		if _, err := svc.Convert(ctx, "buyer", "   "); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress, got %v", err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		long := strings.Repeat("a", orderdomain.MaxAddressLen+1)
		if _, err := svc.Convert(ctx, "buyer", long); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress, got %v", err)
		}
	})

	if len(ledger.reserves) != 0 {
		t.Fatalf("ledger touched for invalid address: %v", ledger.reserves)
	}
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int{"product-x": 5, "product-y": 2})
	svc := newConverter(&fakeCartSource{cart: testCart(t)}, ledger, &fakeOrderPlacer{})

	quote, err := svc.Quote(ctx, "buyer")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if !quote.Total.Equal(dec(t, "35.00")) {
		t.Fatalf("quote total = %s, want 35.00", quote.Total)
	}
	if len(quote.Lines) != 2 {
		t.Fatalf("expected 2 quote lines, got %d", len(quote.Lines))
	}

	byProduct := map[string]bool{}
	for _, l := range quote.Lines {
		byProduct[l.ProductID] = l.InStock
	}
	if !byProduct["product-x"] {
		t.Fatal("product-x should be in stock")
	}
	if byProduct["product-y"] {
		t.Fatal("product-y (3 wanted, 2 left) should not be in stock")
	}

	// A quote must not reserve anything.
	if ledger.stock["product-x"] != 5 || ledger.stock["product-y"] != 2 {
		t.Fatalf("quote mutated stock: %v", ledger.stock)
	}
}

func TestQuoteEmptyCart(t *testing.T) {
	ctx := context.Background()
	svc := newConverter(&fakeCartSource{cart: Cart{ID: "cart-1"}}, newFakeLedger(nil), &fakeOrderPlacer{})

	if _, err := svc.Quote(ctx, "buyer"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}
