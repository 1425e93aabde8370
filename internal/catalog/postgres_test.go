package catalog_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/db"
	"github.com/atmx/listing-engine/internal/migrations"
	"github.com/atmx/listing-engine/internal/model"
)

// Runs against a real server only when TEST_DATABASE_URL is set.
func TestPostgresCatalog(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := migrations.Up(db.PoolDB(pool), migrations.DialectPostgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM catalog_entries WHERE sku LIKE 'pgtest-%'`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	c := catalog.NewPostgresCatalog(pool)
	err = c.Upsert(ctx, []model.CatalogEntry{
		entry("pgtest-A1", "Caneca", 10, 0.2),
		entry("pgtest-B2", "Prato", 22.9, 0.75),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := c.Upsert(ctx, []model.CatalogEntry{entry("pgtest-A1", "Caneca", 10.5, 0.2)}); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	got, err := c.Lookup(ctx, " pgtest-A1 ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !got.UnitCost.Equal(d(10.5)) || !got.UnitWeight.Equal(d(0.2)) {
		t.Errorf("unexpected entry: %+v", got)
	}

	if _, err := c.Lookup(ctx, "pgtest-ZZ"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ours int
	for _, e := range list {
		if e.SKU == "pgtest-A1" || e.SKU == "pgtest-B2" {
			ours++
		}
	}
	if ours != 2 {
		t.Errorf("listed %d test entries, want 2", ours)
	}
}
