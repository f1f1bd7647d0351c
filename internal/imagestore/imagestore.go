// Package imagestore persists encoded product images and enumerates the
// identifiers already in use. Two interchangeable backends exist: a local
// directory served as static files, and a Cloudinary namespace.
package imagestore

import (
	"context"
	"fmt"
)

const (
	// namePrefix is the fixed naming pattern shared by both backends.
	// Stored images are addressable as producto<N>.
	namePrefix = "producto"
	fileExt    = ".webp"
)

// Store persists encoded product images keyed by product number and lists
// the identifiers currently stored.
type Store interface {
	// Save writes the encoded image under the identifier derived from id,
	// overwriting any existing content, and returns the public reference
	// to use as the product's image field.
	Save(ctx context.Context, encoded []byte, id int64) (string, error)

	// ListPage returns one page of stored image identifiers plus the cursor
	// for the next page. An empty next cursor means the listing is drained.
	ListPage(ctx context.Context, cursor string) (names []string, next string, err error)
}

// ObjectName returns the backend-independent identifier for a product number.
func ObjectName(id int64) string {
	return fmt.Sprintf("%s%d", namePrefix, id)
}

// FileName returns the on-disk filename for a product number.
func FileName(id int64) string {
	return ObjectName(id) + fileExt
}
