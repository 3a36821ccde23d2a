package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abarbosa/loja-virtual/internal/cart/cache"
	"github.com/abarbosa/loja-virtual/internal/cart/domain"
	"github.com/abarbosa/loja-virtual/internal/cart/repository"
	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrProductNotFound = errors.New("product not found in catalog")
)

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalogrepo.CatalogRepository
	sfg     singleflight.Group // collapses concurrent cache misses per session
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog catalogrepo.CatalogRepository) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // degraded, keep serving from repo
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				SessionID: sessionID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), sessionID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem snapshots the catalog row into the cart line. The snapshot is what
// pricing and shipping quotes run against until checkout re-verifies stock.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, catalogrepo.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("catalog lookup: %w", err)
	}

	if quantity > product.Stock {
		quantity = product.Stock
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	item := domain.CartItem{
		ProductID:                product.ID,
		ProductName:              product.Name,
		UnitPrice:                product.Price,
		Quantity:                 quantity,
		StockSnapshot:            product.Stock,
		WholesaleMinAmount:       product.WholesaleMinAmount,
		WholesaleDiscountPercent: product.WholesaleDiscountPercent,
		WeightKg:                 product.WeightKg,
		LengthCm:                 product.LengthCm,
		HeightCm:                 product.HeightCm,
		WidthCm:                  product.WidthCm,
	}

	if errAdd := s.repo.AddItem(ctx, sessionID, item); errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if errUpdate := s.repo.UpdateItemQuantity(ctx, sessionID, productID, quantity); errUpdate != nil {
		log.Printf("repo update item quantity error: %v", errUpdate)
		return errUpdate
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	if errRemove := s.repo.RemoveItem(ctx, sessionID, productID); errRemove != nil {
		log.Printf("repo remove item error: %v", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if errDelete := s.repo.DeleteCart(ctx, sessionID); errDelete != nil {
		log.Printf("repo delete cart error: %v", errDelete)
		return errDelete
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if errInvalidate := s.cache.Delete(ctx, sessionID); errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}
