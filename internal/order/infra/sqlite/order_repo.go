package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LW95x/marketplace-backend/internal/order/app"
	"github.com/LW95x/marketplace-backend/internal/order/domain"
	"github.com/shopspring/decimal"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) execTX(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, buyerID, orderID string) (domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, date, status, address, total_price, version
		FROM orders WHERE id = ? AND buyer_id = ?`, orderID, buyerID)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *OrderRepo) List(ctx context.Context, buyerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, buyer_id, date, status, address, total_price, version
		FROM orders WHERE buyer_id = ? ORDER BY date DESC, id`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Update rewrites status and address under the version the caller loaded,
// so two interleaved patches cannot silently drop each other's field.
func (r *OrderRepo) Update(ctx context.Context, o domain.Order) (domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, address = ?, version = version + 1 WHERE id = ? AND version = ?`,
		string(o.Status), o.Address, o.ID, o.Version)
	if err != nil {
		return domain.Order{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, err
	}
	if n == 0 {
		// No row matched: either the order is gone or someone got there
		// first with a newer version.
		var exists int
		err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders WHERE id = ?`, o.ID).Scan(&exists)
		if err != nil {
			return domain.Order{}, err
		}
		if exists == 0 {
			return domain.Order{}, app.ErrNotFound
		}
		return domain.Order{}, app.ErrConcurrentModification
	}

	o.Version++
	return o, nil
}

func (r *OrderRepo) Delete(ctx context.Context, orderID string) error {
	return r.execTX(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return app.ErrNotFound
		}
		return nil
	})
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, line_total
		FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item  domain.OrderItem
			unit  string
			total string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &unit, &total); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, err
		}
		if item.LineTotal, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		date   int64
		status string
		total  string
	)
	if err := row.Scan(&order.ID, &order.BuyerID, &date, &status, &order.Address, &total, &order.Version); err != nil {
		return domain.Order{}, err
	}

	order.Date = time.Unix(date, 0).UTC()
	order.Status = domain.Status(status)

	var err error
	if order.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
