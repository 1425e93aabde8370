package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmx/listing-engine/internal/model"
)

// PostgresCatalog implements Catalog and Writer using PostgreSQL. Costs and
// weights are stored as NUMERIC for exact decimal precision.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalog creates a PostgreSQL-backed catalog.
func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

func (c *PostgresCatalog) Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error) {
	sku = model.NormalizeSKU(sku)

	var e model.CatalogEntry
	var cost, weight string
	err := c.pool.QueryRow(ctx,
		`SELECT sku, name, unit_cost::TEXT, unit_weight::TEXT
		 FROM catalog_entries WHERE sku = $1`, sku).
		Scan(&e.SKU, &e.Name, &cost, &weight)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (c *PostgresCatalog) List(ctx context.Context) ([]model.CatalogEntry, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT sku, name, unit_cost::TEXT, unit_weight::TEXT
		 FROM catalog_entries ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Upsert sends all rows in one batch inside a transaction.
func (c *PostgresCatalog) Upsert(ctx context.Context, entries []model.CatalogEntry) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		sku := model.NormalizeSKU(e.SKU)
		if sku == "" {
			continue
		}
		batch.Queue(
			`INSERT INTO catalog_entries (sku, name, unit_cost, unit_weight, updated_at)
			 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, now())
			 ON CONFLICT (sku) DO UPDATE SET
			     name = EXCLUDED.name,
			     unit_cost = EXCLUDED.unit_cost,
			     unit_weight = EXCLUDED.unit_weight,
			     updated_at = EXCLUDED.updated_at`,
			sku, e.Name, e.UnitCost.String(), e.UnitWeight.String(),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert catalog batch: %w", err)
	}
	return tx.Commit(ctx)
}
