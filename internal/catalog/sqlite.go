package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/model"
)

// SQLCatalog implements Catalog and Writer over the catalog_entries table in
// a SQLite database. Numeric columns are read back as TEXT so no value passes
// through float64.
type SQLCatalog struct {
	db *sql.DB
}

// NewSQLCatalog wraps an open database whose schema is already migrated.
func NewSQLCatalog(db *sql.DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

func (c *SQLCatalog) Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error) {
	sku = model.NormalizeSKU(sku)

	var e model.CatalogEntry
	var cost, weight string
	err := c.db.QueryRowContext(ctx,
		`SELECT sku, name, CAST(unit_cost AS TEXT), CAST(unit_weight AS TEXT)
		 FROM catalog_entries WHERE sku = ?`, sku).
		Scan(&e.SKU, &e.Name, &cost, &weight)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(sku)
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry %s: %w", sku, err)
	}

	if err := decodeNumbers(&e, cost, weight); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *SQLCatalog) List(ctx context.Context) ([]model.CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT sku, name, CAST(unit_cost AS TEXT), CAST(unit_weight AS TEXT)
		 FROM catalog_entries ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (c *SQLCatalog) Upsert(ctx context.Context, entries []model.CatalogEntry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO catalog_entries (sku, name, unit_cost, unit_weight, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (sku) DO UPDATE SET
		     name = excluded.name,
		     unit_cost = excluded.unit_cost,
		     unit_weight = excluded.unit_weight,
		     updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		sku := model.NormalizeSKU(e.SKU)
		if sku == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, sku, e.Name, e.UnitCost.String(), e.UnitWeight.String()); err != nil {
			return fmt.Errorf("upsert %s: %w", sku, err)
		}
	}
	return tx.Commit()
}

// rowScanner is satisfied by both *sql.Rows and pgx.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows rowScanner) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		var cost, weight string
		if err := rows.Scan(&e.SKU, &e.Name, &cost, &weight); err != nil {
			return nil, err
		}
		if err := decodeNumbers(&e, cost, weight); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func decodeNumbers(e *model.CatalogEntry, cost, weight string) error {
	var err error
	if e.UnitCost, err = decimal.NewFromString(cost); err != nil {
		return fmt.Errorf("%w: %s unit_cost %q", ErrBadValue, e.SKU, cost)
	}
	if e.UnitWeight, err = decimal.NewFromString(weight); err != nil {
		return fmt.Errorf("%w: %s unit_weight %q", ErrBadValue, e.SKU, weight)
	}
	return nil
}
