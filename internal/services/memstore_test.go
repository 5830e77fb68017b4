package services

import (
	"context"
	"maps"
	"sync"

	"shop-service/internal/domain"
	"shop-service/internal/repository"
)

// memStore is an in-memory OrderRepository. Transactions run one at a time
// against a private copy of the state that is published only on commit.
type memStore struct {
	mu          sync.Mutex
	stock       map[uint64]int64
	orders      []domain.Order
	lines       []domain.OrderLine
	nextOrderID uint64
	nextLineID  uint64
	commitErr   error
}

func newMemStore(stock map[uint64]int64) *memStore {
	return &memStore{stock: stock, nextOrderID: 1, nextLineID: 1}
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx repository.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		stock:       maps.Clone(s.stock),
		nextOrderID: s.nextOrderID,
		nextLineID:  s.nextLineID,
	}
	if err := fn(tx); err != nil {
		return err
	}
	if s.commitErr != nil {
		return s.commitErr
	}

	s.stock = tx.stock
	s.orders = append(s.orders, tx.orders...)
	s.lines = append(s.lines, tx.lines...)
	s.nextOrderID = tx.nextOrderID
	s.nextLineID = tx.nextLineID
	return nil
}

func (s *memStore) FindLinesByCustomer(_ context.Context, customerID uint64) ([]domain.OrderHistoryLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.OrderHistoryLine{}
	for _, o := range s.orders {
		if o.CustomerID != customerID {
			continue
		}
		for _, l := range s.lines {
			if l.OrderID == o.ID {
				out = append(out, domain.OrderHistoryLine{
					OrderID:   o.ID,
					ProductID: l.ProductID,
					OrderDate: o.OrderDate,
					Quantity:  l.Quantity,
				})
			}
		}
	}
	return out, nil
}

func (s *memStore) snapshot() (map[uint64]int64, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.stock), len(s.orders), len(s.lines)
}

type memTx struct {
	stock       map[uint64]int64
	orders      []domain.Order
	lines       []domain.OrderLine
	nextOrderID uint64
	nextLineID  uint64
}

func (t *memTx) InsertOrder(order *domain.Order) error {
	order.ID = t.nextOrderID
	t.nextOrderID++
	t.orders = append(t.orders, *order)
	return nil
}

func (t *memTx) LockStock(productID uint64) (int64, error) {
	units, ok := t.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return units, nil
}

func (t *memTx) InsertLine(line *domain.OrderLine) error {
	line.ID = t.nextLineID
	t.nextLineID++
	t.lines = append(t.lines, *line)
	return nil
}

func (t *memTx) DecrementStock(productID uint64, qty int64) (bool, error) {
	units, ok := t.stock[productID]
	if !ok || units < qty {
		return false, nil
	}
	t.stock[productID] = units - qty
	return true, nil
}
