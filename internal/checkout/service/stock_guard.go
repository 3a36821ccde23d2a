package service

import (
	"context"
	"fmt"

	"github.com/abarbosa/loja-virtual/internal/cart/domain"
	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
)

// verifyStock fails closed: a product missing from the catalog or with less
// stock than requested blocks checkout. This is the fast pre-check; the
// authoritative guard is the conditional decrement inside the order
// transaction.
func (s *CheckoutService) verifyStock(ctx context.Context, items []domain.CartItem) error {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("stock verification: %w", err)
	}

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return &catalogrepo.InsufficientStockError{
				ProductName: item.ProductName,
				Available:   0,
			}
		}
		if product.Stock < item.Quantity {
			return &catalogrepo.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.Stock,
			}
		}
	}
	return nil
}
