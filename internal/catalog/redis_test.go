package catalog_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/model"
)

// countingCatalog records how often the primary is consulted.
type countingCatalog struct {
	*catalog.MemoryCatalog
	lookups atomic.Int32
}

func (c *countingCatalog) Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error) {
	c.lookups.Add(1)
	return c.MemoryCatalog.Lookup(ctx, sku)
}

func newCached(t *testing.T, ttl time.Duration, entries ...model.CatalogEntry) (*catalog.CachedCatalog, *countingCatalog, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	primary := &countingCatalog{MemoryCatalog: catalog.NewMemoryCatalog(entries...)}
	return catalog.NewCachedCatalog(primary, rdb, ttl), primary, mr
}

func TestCachedCatalog_ReadThrough(t *testing.T) {
	cached, primary, mr := newCached(t, 30*time.Second, entry("A1", "Caneca", 10, 0.2))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := cached.Lookup(ctx, "A1")
		if err != nil {
			t.Fatalf("Lookup %d: %v", i, err)
		}
		if !got.UnitCost.Equal(d(10)) || got.Name != "Caneca" {
			t.Errorf("Lookup %d = %+v", i, got)
		}
	}

	if n := primary.lookups.Load(); n != 1 {
		t.Errorf("primary consulted %d times, want 1", n)
	}
	if !mr.Exists("catalog:sku:A1") {
		t.Error("entry not cached")
	}
	if ttl := mr.TTL("catalog:sku:A1"); ttl != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", ttl)
	}
}

func TestCachedCatalog_ExpiryFallsThrough(t *testing.T) {
	cached, primary, mr := newCached(t, time.Second, entry("A1", "Caneca", 10, 0.2))
	ctx := context.Background()

	if _, err := cached.Lookup(ctx, "A1"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := cached.Lookup(ctx, "A1"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if n := primary.lookups.Load(); n != 2 {
		t.Errorf("primary consulted %d times, want 2", n)
	}
}

func TestCachedCatalog_NotFoundIsNotCached(t *testing.T) {
	cached, _, mr := newCached(t, time.Minute)

	if _, err := cached.Lookup(context.Background(), "ZZ"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("unexpected keys cached: %v", mr.Keys())
	}
}

func TestCachedCatalog_UpsertInvalidates(t *testing.T) {
	cached, _, mr := newCached(t, time.Minute, entry("A1", "Caneca", 10, 0.2))
	ctx := context.Background()

	if _, err := cached.Lookup(ctx, "A1"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := cached.Upsert(ctx, []model.CatalogEntry{entry("A1", "Caneca", 12, 0.2)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if mr.Exists("catalog:sku:A1") {
		t.Error("cache entry survived upsert")
	}

	got, err := cached.Lookup(ctx, "A1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !got.UnitCost.Equal(d(12)) {
		t.Errorf("cost = %s, want 12", got.UnitCost)
	}
}

func TestCachedCatalog_RedisDownFallsBack(t *testing.T) {
	cached, primary, mr := newCached(t, time.Minute, entry("A1", "Caneca", 10, 0.2))
	mr.Close()

	got, err := cached.Lookup(context.Background(), "A1")
	if err != nil {
		t.Fatalf("Lookup with Redis down: %v", err)
	}
	if !got.UnitCost.Equal(d(10)) || primary.lookups.Load() != 1 {
		t.Errorf("expected primary fallback, got %+v", got)
	}
}

func TestCachedCatalog_ReadOnlyPrimary(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	path := writeFile(t, "produtos.csv", "SKU,custo,peso\nA1,10,0.2\n")
	file, err := catalog.NewFileCatalog(path, "")
	if err != nil {
		t.Fatalf("NewFileCatalog: %v", err)
	}

	cached := catalog.NewCachedCatalog(file, rdb, time.Minute)
	if err := cached.Upsert(context.Background(), nil); !errors.Is(err, catalog.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}
