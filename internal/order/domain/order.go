package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/LW95x/marketplace-backend/pkg/money"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus accepts any known status. Transitions are not restricted:
// an order may move between any two statuses.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusShipped:
		return StatusShipped, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

const MaxAddressLen = 255

// OrderItem is immutable once the order is created.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Order struct {
	ID         string
	BuyerID    string
	Date       time.Time
	Status     Status
	Address    string
	TotalPrice decimal.Decimal
	// Version backs optimistic locking: patches are conditional on it and
	// bump it, the same way cart writes are guarded.
	Version int64
	Items   []OrderItem
}

// Total recomputes the order total from its line items, independently of
// the persisted TotalPrice.
func (o Order) Total() decimal.Decimal {
	totals := make([]decimal.Decimal, len(o.Items))
	for i, it := range o.Items {
		totals[i] = it.LineTotal
	}
	return money.Sum(totals...)
}
