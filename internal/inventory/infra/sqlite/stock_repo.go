package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/LW95x/marketplace-backend/internal/inventory/app"
)

// StockRepo mutates the products.quantity column. The read-check-decrement
// sequence is a single conditional UPDATE, so two reserves that would
// jointly overdraw a product can never both succeed.
type StockRepo struct {
	db *sql.DB
}

func NewStockRepo(db *sql.DB) *StockRepo {
	return &StockRepo{db: db}
}

func (r *StockRepo) Available(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.db.QueryRowContext(ctx,
		`SELECT quantity FROM products WHERE id = ?`, productID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, app.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (r *StockRepo) Decrement(ctx context.Context, productID string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - ?, updated_at = ?
		WHERE id = ? AND quantity >= ?`,
		qty, time.Now().UTC().Unix(), productID, qty)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	// No row matched: either the product is missing or stock ran short.
	if _, err := r.Available(ctx, productID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *StockRepo) Increment(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity + ?, updated_at = ?
		WHERE id = ?`,
		qty, time.Now().UTC().Unix(), productID)
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
}
