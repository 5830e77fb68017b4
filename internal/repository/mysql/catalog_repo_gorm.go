package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shop-service/internal/domain"
	"shop-service/internal/repository"
)

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) repository.CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	if err := r.db.WithContext(ctx).Order("category_name").Find(&categories).Error; err != nil {
		return nil, domain.StoreError("list categories", err)
	}
	return categories, nil
}

func (r *catalogRepo) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	products := []domain.Product{}
	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("id").Find(&products).Error; err != nil {
		return nil, domain.StoreError("list products", err)
	}
	return products, nil
}

func (r *catalogRepo) FindProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, domain.StoreError("find product", err)
	}
	return &p, nil
}

func (r *catalogRepo) UnitsStored(ctx context.Context, id uint64) (int64, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Select("units_stored").Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, domain.StoreError("units stored", err)
	}
	return p.UnitsStored, nil
}

// CreateCategories inserts every row inside one transaction; the first
// failing insert rolls all of them back.
func (r *catalogRepo) CreateCategories(ctx context.Context, categories []domain.Category) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		for i := range categories {
			if err := tx.Create(&categories[i]).Error; err != nil {
				return domain.StoreError("insert category "+categories[i].Name, err)
			}
		}
		return nil
	})
}

func (r *catalogRepo) CreateProducts(ctx context.Context, products []domain.Product) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		for i := range products {
			if err := tx.Omit(clause.Associations).Create(&products[i]).Error; err != nil {
				return domain.StoreError("insert product "+products[i].Name, err)
			}
		}
		return nil
	})
}
