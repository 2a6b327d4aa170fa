package inventory

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store with the same reservation semantics as
// PGStore. Used by tests and local runs without Postgres.
type MemStore struct {
	mu       sync.Mutex
	products map[string]*Product
}

func NewMemStore() *MemStore {
	return &MemStore{products: map[string]*Product{}}
}

func (s *MemStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = &p
}

func (s *MemStore) Get(ctx context.Context, productID string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return *p, nil
}

func (s *MemStore) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	if p.Stock < qty {
		return 0, &InsufficientStockError{ProductID: productID, Available: p.Stock, Requested: qty}
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	return p.Stock, nil
}

func (s *MemStore) Release(ctx context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now()
	return nil
}
