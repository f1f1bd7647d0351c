// Package store provides an interface for product storage operations.
package store

import (
	"context"
)

// Product represents a product record as persisted.
type Product struct {
	ID           int64
	Image        string
	Name         string
	Description  string
	Price        float64
	IsNew        bool
	Category     string
	Availability int32
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindAll returns all products sorted by id in descending order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Create persists a new product with an explicit id.
	// Returns ErrDuplicateID if a product with that id already exists.
	Create(ctx context.Context, product Product) (*Product, error)

	// Update overwrites an existing product record.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, product Product) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}
