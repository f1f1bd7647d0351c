package store

import (
	"context"
	"sort"
	"sync"

	cerrors "github.com/abgdnv/gocatalog/internal/errors"
)

// inMemory implements ProductStore using an in-memory map.
// It enforces the same id uniqueness guarantee as the database store.
type inMemory struct {
	mu       sync.RWMutex
	products map[int64]Product
}

// NewInMemoryStore creates a new instance of ProductStore
func NewInMemoryStore() ProductStore {
	return &inMemory{
		products: make(map[int64]Product),
	}
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, cerrors.ErrProductNotFound
	}
	return &p, nil
}

// FindAll retrieves all products sorted by id in descending order.
func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// Create persists a new product, rejecting duplicate ids.
func (s *inMemory) Create(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, cerrors.ErrDuplicateID
	}
	s.products[product.ID] = product
	return &product, nil
}

// Update overwrites an existing product.
func (s *inMemory) Update(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return nil, cerrors.ErrProductNotFound
	}
	s.products[product.ID] = product
	return &product, nil
}

// DeleteByID deletes a product by its ID.
func (s *inMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return cerrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}
