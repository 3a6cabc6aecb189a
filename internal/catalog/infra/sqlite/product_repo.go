package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/LW95x/marketplace-backend/internal/catalog/app"
	"github.com/LW95x/marketplace-backend/internal/catalog/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id, name, description, price, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Quantity, now.Unix(), now.Unix())
	if err != nil {
		return domain.Product{}, err
	}

	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, quantity, created_at, updated_at
		FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	q := `
		SELECT id, name, description, price, quantity, created_at, updated_at
		FROM products
		WHERE name LIKE '%' || ? || '%'`
	args := []any{strings.TrimSpace(query)}

	if strings.TrimSpace(cursor) != "" {
		q += ` AND id > ?`
		args = append(args, strings.TrimSpace(cursor))
	}
	q += ` ORDER BY id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, limit)
	var nextCursor string

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, p)
		nextCursor = p.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	if len(out) < limit {
		nextCursor = ""
	}
	return out, nextCursor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		price    string
		created  int64
		updated  int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Quantity, &created, &updated); err != nil {
		return domain.Product{}, err
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = d
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}
