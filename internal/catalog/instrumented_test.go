package catalog_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/metrics"
)

func TestInstrumented_CountsHitsAndMisses(t *testing.T) {
	c := catalog.Instrument(catalog.NewMemoryCatalog(entry("A1", "x", 1, 1)), "instrumented-test")
	ctx := context.Background()

	_, _ = c.Lookup(ctx, "A1")
	_, _ = c.Lookup(ctx, "A1")
	_, _ = c.Lookup(ctx, "nope")

	if got := testutil.ToFloat64(metrics.CatalogLookups.WithLabelValues("instrumented-test", "hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CatalogLookups.WithLabelValues("instrumented-test", "miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}

	if err := c.Upsert(ctx, nil); err != nil {
		t.Errorf("memory catalog is writable, got %v", err)
	}
	if c.Backend() != "instrumented-test" {
		t.Errorf("backend = %q", c.Backend())
	}
}
