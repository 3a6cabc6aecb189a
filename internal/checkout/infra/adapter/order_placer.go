package adapter

import (
	"context"
	"database/sql"
	"fmt"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	checkoutapp "github.com/LW95x/marketplace-backend/internal/checkout/app"
	orderdomain "github.com/LW95x/marketplace-backend/internal/order/domain"
)

// SQLOrderPlacer writes the order rows and empties the source cart inside a
// single transaction, so stock can never end up decremented with an order
// on disk and the cart still full. The cart wipe is guarded by the version
// the converter snapshotted; a line committed after the snapshot fails the
// whole placement with ErrConcurrentModification.
type SQLOrderPlacer struct {
	db *sql.DB
}

func NewSQLOrderPlacer(db *sql.DB) *SQLOrderPlacer {
	return &SQLOrderPlacer{db: db}
}

func (p *SQLOrderPlacer) Place(ctx context.Context, order orderdomain.Order, cart checkoutapp.Cart) (orderdomain.Order, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return orderdomain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders(id, buyer_id, date, status, address, total_price)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.BuyerID, order.Date.Unix(), string(order.Status),
		order.Address, order.TotalPrice.String())
	if err != nil {
		return orderdomain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i, it := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, unit_price, line_total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, order.ID, it.ProductID, it.Quantity,
			it.UnitPrice.String(), it.LineTotal.String())
		if err != nil {
			return orderdomain.Order{}, fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE carts SET total_price = '0', version = version + 1 WHERE id = ? AND version = ?`,
		cart.ID, cart.Version)
	if err != nil {
		return orderdomain.Order{}, fmt.Errorf("reset cart total: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return orderdomain.Order{}, err
	}
	if n == 0 {
		return orderdomain.Order{}, cartapp.ErrConcurrentModification
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
		return orderdomain.Order{}, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return orderdomain.Order{}, err
	}
	return order, nil
}
