package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func entry(sku, name string, cost, weight float64) model.CatalogEntry {
	return model.CatalogEntry{SKU: sku, Name: name, UnitCost: d(cost), UnitWeight: d(weight)}
}

func TestMemoryCatalog_Lookup(t *testing.T) {
	c := catalog.NewMemoryCatalog(entry("A1", "Caneca", 10, 0.2))
	ctx := context.Background()

	got, err := c.Lookup(ctx, " A1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Caneca" || !got.UnitCost.Equal(d(10)) || !got.UnitWeight.Equal(d(0.2)) {
		t.Errorf("unexpected entry: %+v", got)
	}

	if _, err := c.Lookup(ctx, "a1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("lookup is case-sensitive, expected ErrNotFound, got %v", err)
	}
}

func TestMemoryCatalog_FirstDuplicateWins(t *testing.T) {
	c := catalog.NewMemoryCatalog(
		entry("A1", "first", 10, 0.2),
		entry(" A1", "second", 99, 9),
		entry("", "blank", 1, 1),
	)

	got, err := c.Lookup(context.Background(), "A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "first" {
		t.Errorf("name = %q, want first", got.Name)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryCatalog_ReturnsCopies(t *testing.T) {
	c := catalog.NewMemoryCatalog(entry("A1", "Caneca", 10, 0.2))
	ctx := context.Background()

	got, _ := c.Lookup(ctx, "A1")
	got.UnitCost = d(0)

	again, _ := c.Lookup(ctx, "A1")
	if !again.UnitCost.Equal(d(10)) {
		t.Error("mutating a returned entry changed the catalog")
	}
}

func TestMemoryCatalog_UpsertKeepsOrder(t *testing.T) {
	c := catalog.NewMemoryCatalog(entry("B", "b", 1, 1), entry("A", "a", 2, 2))
	ctx := context.Background()

	if err := c.Upsert(ctx, []model.CatalogEntry{entry("A", "a2", 3, 3), entry("C", "c", 4, 4)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var skus []string
	for _, e := range list {
		skus = append(skus, e.SKU)
	}
	if len(skus) != 3 || skus[0] != "B" || skus[1] != "A" || skus[2] != "C" {
		t.Errorf("order = %v, want [B A C]", skus)
	}
	if !list[1].UnitCost.Equal(d(3)) {
		t.Errorf("A not replaced: %+v", list[1])
	}
}

func TestImport(t *testing.T) {
	src := catalog.NewMemoryCatalog(entry("A1", "x", 1, 1), entry("B2", "y", 2, 2))
	dst := catalog.NewMemoryCatalog()

	n, err := catalog.Import(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 2 || dst.Len() != 2 {
		t.Errorf("imported %d, dst has %d, want 2", n, dst.Len())
	}
}
