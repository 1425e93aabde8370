// Package catalog resolves SKUs to unit cost, unit weight and display name.
// Implementations include spreadsheet files (the product workbook), SQLite,
// PostgreSQL, a Redis read-through cache and an in-memory map for testing.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/atmx/listing-engine/internal/model"
)

// ErrNotFound is wrapped by every backend when a SKU has no entry.
var ErrNotFound = errors.New("catalog: sku not found")

// Catalog is the read interface the pricing engine and the product routes
// depend on. SKUs are trimmed before matching; matching is case-sensitive.
type Catalog interface {
	// Lookup returns the entry for sku or an error wrapping ErrNotFound.
	Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error)

	// List returns every entry in the backend's natural order.
	List(ctx context.Context) ([]model.CatalogEntry, error)
}

// Writer is implemented by backends that can be seeded.
type Writer interface {
	// Upsert inserts entries, replacing existing rows with the same SKU.
	Upsert(ctx context.Context, entries []model.CatalogEntry) error
}

// Import copies every entry of src into dst and returns the count.
func Import(ctx context.Context, src Catalog, dst Writer) (int, error) {
	entries, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list source catalog: %w", err)
	}
	if err := dst.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("upsert %d entries: %w", len(entries), err)
	}
	return len(entries), nil
}

func notFound(sku string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, sku)
}
