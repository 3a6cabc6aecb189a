package app

import (
	"context"
	"errors"
	"strings"

	"github.com/LW95x/marketplace-backend/internal/catalog/domain"
	"github.com/LW95x/marketplace-backend/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo ProductRepo
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateProduct registers a product with its list price and starting stock.
// The price is normalised to two decimal places on the way in; line-item
// snapshots taken later never change when this price is edited.
func (s *Service) CreateProduct(ctx context.Context, name, desc string, price decimal.Decimal, quantity int) (domain.Product, error) {
	name = strings.TrimSpace(name)

	if name == "" || price.Sign() <= 0 || quantity < 0 {
		return domain.Product{}, ErrInvalidInput
	}

	p := domain.Product{
		Name:        name,
		Description: desc,
		Price:       money.Round(price),
		Quantity:    quantity,
	}

	product, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, query, limit, cursor)
}
