package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shop-service/internal/domain"
	"shop-service/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) WithinTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&orderTx{db: tx})
	})
}

func (r *orderRepo) FindLinesByCustomer(ctx context.Context, customerID uint64) ([]domain.OrderHistoryLine, error) {
	var out []domain.OrderHistoryLine
	err := r.db.WithContext(ctx).
		Table("customer_order AS o").
		Select("o.id AS order_id, l.product_id, o.order_date, p.product_name, p.price, p.image_url, p.category, l.quantity").
		Joins("JOIN order_line AS l ON l.order_id = o.id").
		Joins("JOIN product AS p ON p.id = l.product_id").
		Where("o.customer_id = ?", customerID).
		Order("o.id, l.id").
		Scan(&out).Error
	if err != nil {
		return nil, domain.StoreError("find order lines", err)
	}
	if out == nil {
		out = []domain.OrderHistoryLine{}
	}
	return out, nil
}

type orderTx struct {
	db *gorm.DB
}

func (t *orderTx) InsertOrder(order *domain.Order) error {
	result := t.db.Omit(clause.Associations).Create(order)
	if result.Error != nil {
		return domain.StoreError("insert order", result.Error)
	}
	if order.ID == 0 {
		return domain.StoreError("insert order", errors.New("no id assigned"))
	}
	return nil
}

func (t *orderTx) LockStock(productID uint64) (int64, error) {
	var p domain.Product
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "units_stored").
		Where("id = ?", productID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, domain.StoreError("lock stock", err)
	}
	return p.UnitsStored, nil
}

func (t *orderTx) InsertLine(line *domain.OrderLine) error {
	if err := t.db.Omit(clause.Associations).Create(line).Error; err != nil {
		return domain.StoreError("insert order line", err)
	}
	return nil
}

func (t *orderTx) DecrementStock(productID uint64, qty int64) (bool, error) {
	result := t.db.Model(&domain.Product{}).
		Where("id = ? AND units_stored >= ?", productID, qty).
		UpdateColumn("units_stored", gorm.Expr("units_stored - ?", qty))
	if result.Error != nil {
		return false, domain.StoreError("decrement stock", result.Error)
	}
	return result.RowsAffected == 1, nil
}
