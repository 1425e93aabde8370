package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/db"
	"github.com/atmx/listing-engine/internal/migrations"
	"github.com/atmx/listing-engine/internal/model"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := migrations.Up(conn, migrations.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestSQLCatalog_UpsertAndLookup(t *testing.T) {
	c := catalog.NewSQLCatalog(newSQLiteDB(t))
	ctx := context.Background()

	err := c.Upsert(ctx, []model.CatalogEntry{
		entry("A1", "Caneca", 10, 0.2),
		entry(" B2 ", "Prato", 22.9, 0.75),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := c.Lookup(ctx, "A1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Name != "Caneca" || !got.UnitCost.Equal(d(10)) || !got.UnitWeight.Equal(d(0.2)) {
		t.Errorf("unexpected entry: %+v", got)
	}

	got, err = c.Lookup(ctx, "B2 ")
	if err != nil {
		t.Fatalf("trimmed SKU lookup: %v", err)
	}
	if !got.UnitCost.Equal(d(22.9)) {
		t.Errorf("cost = %s, want 22.9", got.UnitCost)
	}

	if _, err := c.Lookup(ctx, "ZZ"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLCatalog_UpsertReplaces(t *testing.T) {
	c := catalog.NewSQLCatalog(newSQLiteDB(t))
	ctx := context.Background()

	if err := c.Upsert(ctx, []model.CatalogEntry{entry("A1", "old", 10, 0.2)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := c.Upsert(ctx, []model.CatalogEntry{entry("A1", "new", 11.5, 0.3)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("entries = %d, want 1", len(list))
	}
	if list[0].Name != "new" || !list[0].UnitCost.Equal(d(11.5)) {
		t.Errorf("entry not replaced: %+v", list[0])
	}
}

func TestSQLCatalog_ImportFromSpreadsheet(t *testing.T) {
	path := writeFile(t, "produtos.csv", "SKU,nome,custo,peso\nB2,Prato,5,1\nA1,Caneca,10,0.2\n")
	file, err := catalog.NewFileCatalog(path, "")
	if err != nil {
		t.Fatalf("NewFileCatalog: %v", err)
	}

	c := catalog.NewSQLCatalog(newSQLiteDB(t))
	n, err := catalog.Import(context.Background(), file, c)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}

	list, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].SKU != "A1" || list[1].SKU != "B2" {
		t.Errorf("list not ordered by SKU: %+v", list)
	}
}

func TestMigrations_Version(t *testing.T) {
	conn := newSQLiteDB(t)

	v, err := migrations.Version(conn, migrations.DialectSQLite)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}

	// Running again is a no-op.
	if err := migrations.Up(conn, migrations.DialectSQLite); err != nil {
		t.Errorf("second Up: %v", err)
	}
}
