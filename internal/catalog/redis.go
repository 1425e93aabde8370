package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/listing-engine/internal/metrics"
	"github.com/atmx/listing-engine/internal/model"
)

// ErrReadOnly is returned by CachedCatalog.Upsert when the primary catalog
// cannot be written.
var ErrReadOnly = errors.New("catalog: primary catalog is read-only")

// CachedCatalog wraps a primary Catalog with a Redis read-through cache.
// Lookups check Redis first then fall back to the primary; writes go to the
// primary and invalidate the cached entries. Unknown SKUs are not cached.
type CachedCatalog struct {
	primary Catalog
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedCatalog creates a cached wrapper around a primary catalog.
func NewCachedCatalog(primary Catalog, rdb *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (c *CachedCatalog) Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error) {
	sku = model.NormalizeSKU(sku)

	data, err := c.rdb.Get(ctx, entryKey(sku)).Bytes()
	switch {
	case err == nil:
		var e model.CatalogEntry
		if json.Unmarshal(data, &e) == nil {
			metrics.CacheHits.Inc()
			return &e, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Debug("catalog cache read failed", "sku", sku, "err", err)
	}

	// Cache miss: read from primary.
	metrics.CacheMisses.Inc()
	e, err := c.primary.Lookup(ctx, sku)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(e); err == nil {
		c.rdb.Set(ctx, entryKey(sku), data, c.ttl)
	}
	return e, nil
}

// List is not cached.
func (c *CachedCatalog) List(ctx context.Context) ([]model.CatalogEntry, error) {
	return c.primary.List(ctx)
}

func (c *CachedCatalog) Upsert(ctx context.Context, entries []model.CatalogEntry) error {
	w, ok := c.primary.(Writer)
	if !ok {
		return ErrReadOnly
	}
	if err := w.Upsert(ctx, entries); err != nil {
		return err
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, entryKey(model.NormalizeSKU(e.SKU)))
	}
	if len(keys) > 0 {
		c.rdb.Del(ctx, keys...)
	}
	return nil
}

func entryKey(sku string) string { return fmt.Sprintf("catalog:sku:%s", sku) }
