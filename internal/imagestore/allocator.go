package imagestore

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
)

var productNumber = regexp.MustCompile(`producto(\d+)`)

// Allocator computes the next unused sequential product number by scanning
// the identifiers already present in the image store. It is a best-effort
// hint: the record store's unique id constraint is the actual guarantee
// against concurrent creates racing to the same number.
type Allocator struct {
	store  Store
	logger *slog.Logger
}

// NewAllocator creates an allocator over the given image store.
func NewAllocator(store Store, logger *slog.Logger) *Allocator {
	return &Allocator{
		store:  store,
		logger: logger.With("component", "allocator"),
	}
}

// NextNumber returns one past the highest product number currently stored.
// The listing is drained page by page; the maximum may sit on any page.
// Identifiers that do not match the naming pattern are skipped. If the
// listing source fails, the allocator degrades to 1 instead of failing
// the request.
func (a *Allocator) NextNumber(ctx context.Context) int64 {
	var highest int64
	cursor := ""
	for {
		names, next, err := a.store.ListPage(ctx, cursor)
		if err != nil {
			a.logger.WarnContext(ctx, "image listing failed, falling back to product number 1", "error", err)
			return 1
		}
		for _, name := range names {
			m := productNumber.FindStringSubmatch(name)
			if m == nil {
				continue
			}
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil && n > highest {
				highest = n
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return highest + 1
}
