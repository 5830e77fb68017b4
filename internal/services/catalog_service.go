package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/repository"
)

// CatalogService serves read-only catalog lookups. Categories and single
// products are read through the cache when one is set; stock counts always
// come from the store.
type CatalogService struct {
	repo    repository.CatalogRepository
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
}

func NewCatalogService(r repository.CatalogRepository, timeout time.Duration) *CatalogService {
	return &CatalogService{repo: r, timeout: timeout}
}

func (s *CatalogService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.ttl = ttl
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()
	return readThrough(ctx, s, cache.KeyCategories, s.repo.ListCategories)
}

func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()
	return s.repo.ListProducts(ctx, category)
}

// GetProduct returns the product with its current stock. The cached copy
// never carries units stored; a fill that read the row before an order
// committed could otherwise put the old count back after invalidation.
func (s *CatalogService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()
	if s.cache == nil {
		return s.repo.FindProduct(ctx, id)
	}

	cached, err := readThrough(ctx, s, cache.ProductKey(id), func(ctx context.Context) (*domain.Product, error) {
		p, err := s.repo.FindProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		withoutStock := *p
		withoutStock.UnitsStored = 0
		return &withoutStock, nil
	})
	if err != nil {
		return nil, err
	}

	units, err := s.repo.UnitsStored(ctx, id)
	if err != nil {
		return nil, err
	}
	product := *cached
	product.UnitsStored = units
	return &product, nil
}

func (s *CatalogService) UnitsStored(ctx context.Context, id uint64) (int64, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()
	return s.repo.UnitsStored(ctx, id)
}

// WarmupCategories loads the category list into the cache.
func (s *CatalogService) WarmupCategories(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cache.KeyCategories, data, s.ttl)
}

// readThrough returns the cached value of key or loads it from the store,
// caching the result. Concurrent misses on one key share a single load.
// Cache failures fall back to the store.
func readThrough[T any](ctx context.Context, s *CatalogService, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache != nil {
		b, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, nil
			}
			log.Printf("Discarding undecodable cache entry %s", key)
		case !errors.Is(err, cache.ErrMiss):
			log.Printf("Cache get %s: %v", key, err)
		}
	}

	// The fill runs on the first caller's ctx, so it must stay detached.
	res, err, _ := s.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if data, err := json.Marshal(v); err == nil {
				if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
					log.Printf("Cache set %s: %v", key, err)
				}
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
