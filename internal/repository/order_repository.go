package repository

import (
	"context"

	"shop-service/internal/domain"
)

type OrderRepository interface {
	// WithinTx runs fn in one transaction. fn returning an error rolls the
	// transaction back; otherwise it is committed.
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
	FindLinesByCustomer(ctx context.Context, customerID uint64) ([]domain.OrderHistoryLine, error)
}

// OrderTx is the set of statements an order placement issues inside its
// transaction.
type OrderTx interface {
	InsertOrder(order *domain.Order) error
	// LockStock reads the product's stock and holds a row lock on it until
	// the transaction ends.
	LockStock(productID uint64) (int64, error)
	InsertLine(line *domain.OrderLine) error
	// DecrementStock subtracts qty only while units_stored >= qty and
	// reports whether the row was updated.
	DecrementStock(productID uint64, qty int64) (bool, error)
}
