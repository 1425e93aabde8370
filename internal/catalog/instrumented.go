package catalog

import (
	"context"
	"errors"

	"github.com/atmx/listing-engine/internal/metrics"
	"github.com/atmx/listing-engine/internal/model"
)

// Instrumented counts lookups per backend and result.
type Instrumented struct {
	Catalog
	backend string
}

// Instrument wraps c, labelling its metrics with backend.
func Instrument(c Catalog, backend string) *Instrumented {
	return &Instrumented{Catalog: c, backend: backend}
}

func (i *Instrumented) Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error) {
	e, err := i.Catalog.Lookup(ctx, sku)
	result := "hit"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "miss"
	case err != nil:
		result = "error"
	}
	metrics.CatalogLookups.WithLabelValues(i.backend, result).Inc()
	return e, err
}

// Backend returns the label the catalog was instrumented with.
func (i *Instrumented) Backend() string {
	return i.backend
}

// Upsert forwards to the wrapped catalog when it is writable.
func (i *Instrumented) Upsert(ctx context.Context, entries []model.CatalogEntry) error {
	w, ok := i.Catalog.(Writer)
	if !ok {
		return ErrReadOnly
	}
	return w.Upsert(ctx, entries)
}
