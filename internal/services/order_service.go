package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/repository"
)

type OrderService struct {
	repo    repository.OrderRepository
	cache   cache.Cache
	timeout time.Duration
	now     func() time.Time
}

func NewOrderService(r repository.OrderRepository, timeout time.Duration) *OrderService {
	return &OrderService{
		repo:    r,
		timeout: timeout,
		now:     time.Now,
	}
}

// SetCache enables invalidation of cached products touched by an order.
func (s *OrderService) SetCache(c cache.Cache) {
	s.cache = c
}

// PlaceOrder creates the order header, one line per item and the matching
// stock decrements in one transaction, and returns the new order id. Lines
// are processed in the given order; the first failing line aborts the order
// and nothing is persisted.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID uint64, items []domain.OrderItem) (uint64, error) {
	if customerID == 0 {
		return 0, domain.InvalidInputf("customer id is required")
	}
	if len(items) == 0 {
		return 0, domain.InvalidInputf("order has no products")
	}

	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	order := &domain.Order{
		OrderDate:  s.now().UTC(),
		CustomerID: customerID,
	}

	err := s.repo.WithinTx(ctx, func(tx repository.OrderTx) error {
		if err := tx.InsertOrder(order); err != nil {
			return err
		}
		for i, item := range items {
			if err := placeLine(tx, order.ID, item); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Order for customer %d rolled back: %v", customerID, err)
		return 0, err
	}

	log.Printf("Order %d placed for customer %d with %d lines", order.ID, customerID, len(items))
	s.invalidateProducts(items)
	return order.ID, nil
}

func placeLine(tx repository.OrderTx, orderID uint64, item domain.OrderItem) error {
	if item.Quantity <= 0 {
		return domain.InvalidInputf("quantity %d for product %d must be positive", item.Quantity, item.ProductID)
	}

	available, err := tx.LockStock(item.ProductID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %d", err, item.ProductID)
	}
	if err != nil {
		return err
	}
	if available < item.Quantity {
		return &domain.StockError{ProductID: item.ProductID, Requested: item.Quantity, Available: available}
	}

	if err := tx.InsertLine(&domain.OrderLine{
		OrderID:   orderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}); err != nil {
		return err
	}

	updated, err := tx.DecrementStock(item.ProductID, item.Quantity)
	if err != nil {
		return err
	}
	if !updated {
		return &domain.StockError{ProductID: item.ProductID, Requested: item.Quantity, Available: available}
	}
	return nil
}

func (s *OrderService) invalidateProducts(items []domain.OrderItem) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(items))
	seen := make(map[uint64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			keys = append(keys, cache.ProductKey(item.ProductID))
		}
	}

	ctx, cancel := invalidationContext()
	defer cancel()
	if err := s.cache.Del(ctx, keys...); err != nil {
		log.Printf("Failed to invalidate product cache: %v", err)
	}
}

// MyOrders lists every order line of the customer joined with its order and
// product.
func (s *OrderService) MyOrders(ctx context.Context, customerID uint64) ([]domain.OrderHistoryLine, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()
	return s.repo.FindLinesByCustomer(ctx, customerID)
}
