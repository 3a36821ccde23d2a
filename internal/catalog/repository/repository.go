package repository

import (
	"context"
	"errors"

	"github.com/abarbosa/loja-virtual/internal/catalog/domain"
)

var ErrProductNotFound = errors.New("product not found")

type CatalogRepository interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	GetProducts(ctx context.Context, productIDs []int64) (map[int64]*domain.Product, error)
}
