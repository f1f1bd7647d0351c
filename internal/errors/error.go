// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var (
	// ErrProductNotFound is returned when no product exists with the requested id.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateID is returned when a create collides with an existing product id.
	ErrDuplicateID = errors.New("product id already exists")
	// ErrMissingImage is returned when a create or upload carries no image payload.
	ErrMissingImage = errors.New("image payload is required")
)
