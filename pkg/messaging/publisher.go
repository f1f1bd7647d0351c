// Package messaging defines the event publishing contracts used by the catalog.
package messaging

import (
	"context"
)

const (
	ProductsCreatedSubject = "catalog.products.created"
	ProductsDeletedSubject = "catalog.products.deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
