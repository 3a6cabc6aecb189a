package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LW95x/marketplace-backend/internal/cart/app"
	"github.com/LW95x/marketplace-backend/internal/cart/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so loads can run inside or
// outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) execTX(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

func (r *CartRepo) GetOrCreate(ctx context.Context, buyerID string) (domain.Cart, error) {
	cart, err := r.Get(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, app.ErrNotFound) {
		return domain.Cart{}, err
	}

	// UNIQUE(buyer_id) makes concurrent creates converge on one cart row.
	_, err = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO carts(id, buyer_id, total_price, version) VALUES (?, ?, '0', 0)`,
		uuid.NewString(), buyerID)
	if err != nil {
		return domain.Cart{}, err
	}

	return r.Get(ctx, buyerID)
}

func (r *CartRepo) Get(ctx context.Context, buyerID string) (domain.Cart, error) {
	return loadCartByBuyer(ctx, r.db, buyerID)
}

func (r *CartRepo) GetItem(ctx context.Context, buyerID, itemID string) (domain.CartItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT i.id, i.cart_id, i.product_id, i.quantity, i.unit_price, i.line_total
		FROM cart_items i
		JOIN carts c ON c.id = i.cart_id
		WHERE i.id = ? AND c.buyer_id = ?`, itemID, buyerID)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, app.ErrNotFound
	}
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

// SaveItem upserts one line keyed by (cart_id, product_id), recomputes the
// cart total from the rows now in the cart, and bumps the version. The
// version the caller loaded guards the whole write.
func (r *CartRepo) SaveItem(ctx context.Context, cart domain.Cart, item domain.CartItem) (domain.Cart, error) {
	err := r.execTX(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items(id, cart_id, product_id, quantity, unit_price, line_total)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(cart_id, product_id)
			DO UPDATE SET quantity = excluded.quantity, line_total = excluded.line_total`,
			item.ID, cart.ID, item.ProductID, item.Quantity,
			item.UnitPrice.String(), item.LineTotal.String())
		if err != nil {
			return err
		}
		return commitTotal(ctx, tx, cart)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return r.Get(ctx, cart.BuyerID)
}

func (r *CartRepo) DeleteItem(ctx context.Context, cart domain.Cart, itemID string) (domain.Cart, error) {
	err := r.execTX(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cart.ID)
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
		return commitTotal(ctx, tx, cart)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return r.Get(ctx, cart.BuyerID)
}

// commitTotal recomputes the total from the line items present in this
// transaction and writes it under the optimistic version check.
func commitTotal(ctx context.Context, tx *sql.Tx, cart domain.Cart) error {
	items, err := loadItems(ctx, tx, cart.ID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE carts SET total_price = ?, version = version + 1 WHERE id = ? AND version = ?`,
		total.String(), cart.ID, cart.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return app.ErrConcurrentModification
	}
	return nil
}

func loadCartByBuyer(ctx context.Context, q dbtx, buyerID string) (domain.Cart, error) {
	var (
		cart  domain.Cart
		total string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, buyer_id, total_price, version FROM carts WHERE buyer_id = ?`, buyerID).
		Scan(&cart.ID, &cart.BuyerID, &total, &cart.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	cart.TotalPrice, err = decimal.NewFromString(total)
	if err != nil {
		return domain.Cart{}, err
	}

	cart.Items, err = loadItems(ctx, q, cart.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func loadItems(ctx context.Context, q dbtx, cartID string) ([]domain.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, cart_id, product_id, quantity, unit_price, line_total
		FROM cart_items WHERE cart_id = ?`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.CartItem, error) {
	var (
		item  domain.CartItem
		unit  string
		total string
	)
	if err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &unit, &total); err != nil {
		return domain.CartItem{}, err
	}

	var err error
	if item.UnitPrice, err = decimal.NewFromString(unit); err != nil {
		return domain.CartItem{}, err
	}
	if item.LineTotal, err = decimal.NewFromString(total); err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}
