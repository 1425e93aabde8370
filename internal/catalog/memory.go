package catalog

import (
	"context"
	"sync"

	"github.com/atmx/listing-engine/internal/model"
)

// MemoryCatalog implements Catalog with an in-memory map. Used for testing,
// development and as the snapshot behind FileCatalog.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]model.CatalogEntry
	order   []string
}

// NewMemoryCatalog creates a catalog holding entries. When a SKU repeats,
// the first occurrence wins, matching a top-down spreadsheet lookup.
func NewMemoryCatalog(entries ...model.CatalogEntry) *MemoryCatalog {
	c := &MemoryCatalog{entries: make(map[string]model.CatalogEntry, len(entries))}
	for _, e := range entries {
		e.SKU = model.NormalizeSKU(e.SKU)
		if e.SKU == "" {
			continue
		}
		if _, dup := c.entries[e.SKU]; dup {
			continue
		}
		c.entries[e.SKU] = e
		c.order = append(c.order, e.SKU)
	}
	return c
}

func (c *MemoryCatalog) Lookup(_ context.Context, sku string) (*model.CatalogEntry, error) {
	sku = model.NormalizeSKU(sku)

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[sku]
	if !ok {
		return nil, notFound(sku)
	}
	return &e, nil
}

func (c *MemoryCatalog) List(_ context.Context) ([]model.CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.CatalogEntry, 0, len(c.order))
	for _, sku := range c.order {
		out = append(out, c.entries[sku])
	}
	return out, nil
}

// Upsert replaces entries in place and appends new SKUs at the end.
func (c *MemoryCatalog) Upsert(_ context.Context, entries []model.CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		e.SKU = model.NormalizeSKU(e.SKU)
		if e.SKU == "" {
			continue
		}
		if _, exists := c.entries[e.SKU]; !exists {
			c.order = append(c.order, e.SKU)
		}
		c.entries[e.SKU] = e
	}
	return nil
}

// Len returns the number of entries.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
