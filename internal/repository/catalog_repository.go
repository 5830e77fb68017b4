package repository

import (
	"context"

	"shop-service/internal/domain"
)

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	FindProduct(ctx context.Context, id uint64) (*domain.Product, error)
	UnitsStored(ctx context.Context, id uint64) (int64, error)
	CreateCategories(ctx context.Context, categories []domain.Category) error
	CreateProducts(ctx context.Context, products []domain.Product) error
}
