// Package pricing computes listing economics for a SKU: the derived and
// discounted prices, marketplace commission, tax, the shipping or fixed fee,
// and the resulting profit, margin and markup ratio.
//
// The engine is immutable after construction and safe for concurrent use.
// All monetary values use shopspring/decimal.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/model"
)

var (
	// ErrZeroCost is returned when the scaled catalog cost is zero, which
	// leaves the markup ratio undefined.
	ErrZeroCost = errors.New("pricing: total cost is zero, markup ratio is undefined")

	// ErrZeroDiscountedPrice is returned when a 100% discount leaves nothing
	// to compute the margin against.
	ErrZeroDiscountedPrice = errors.New("pricing: discounted price is zero, margin is undefined")
)

// MoneyScale is the number of decimal places in every returned figure.
const MoneyScale int32 = 2

// Catalog resolves a SKU to its unit cost and weight. Implementations return
// an error wrapping their own not-found sentinel for unknown SKUs.
type Catalog interface {
	Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error)
}

// Engine prices listings against a fixed configuration.
type Engine struct {
	cfg     Config
	catalog Catalog
}

// NewEngine validates cfg and returns an engine that owns a private copy of
// it.
func NewEngine(cfg Config, catalog Catalog) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg.clone(), catalog: catalog}, nil
}

// Config returns a copy of the engine's rates and tables.
func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Quote validates req, looks the SKU up in the catalog and prices it.
func (e *Engine) Quote(ctx context.Context, req model.PricingRequest) (*model.PricingResult, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	entry, err := e.catalog.Lookup(ctx, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", req.SKU, err)
	}

	return e.Calculate(*entry, req)
}

// Calculate prices req using the unit cost and weight from entry. It performs
// no I/O.
func (e *Engine) Calculate(entry model.CatalogEntry, req model.PricingRequest) (*model.PricingResult, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	one := decimal.NewFromInt(1)
	qty := decimal.NewFromInt(int64(req.Quantity))

	totalCost := entry.UnitCost.Mul(qty)
	totalWeight := entry.UnitWeight.Mul(qty)

	derived := req.SitePrice.Mul(one.Add(req.MarkupPercent.Div(hundred)))
	discounted := derived.Mul(one.Sub(req.DiscountPercent.Div(hundred)))

	// Regime is chosen on the undiscounted price.
	regime := model.RegimeFixedFee
	shipping, fixed := decimal.Zero, decimal.Zero
	if derived.GreaterThanOrEqual(e.cfg.ShippingThreshold) {
		regime = model.RegimeShipping
		shipping = e.cfg.Tables.Shipping.Fee(derived, totalWeight)
		if shipping.IsZero() {
			slog.Debug("no shipping fee for price and weight",
				"sku", req.SKU,
				"derived_price", derived.String(),
				"total_weight", totalWeight.String(),
			)
		}
	} else {
		fixed = e.cfg.Tables.FixedFee.Fee(derived)
	}

	commission := discounted.Mul(e.cfg.Rates.CommissionRate(req.ListingTier))
	tax := discounted.Mul(e.cfg.Rates.Tax)

	totalCosts := totalCost.Add(commission).Add(tax).Add(shipping).Add(fixed)
	profit := discounted.Sub(totalCosts)

	if discounted.IsZero() {
		return nil, ErrZeroDiscountedPrice
	}
	if totalCost.IsZero() {
		return nil, ErrZeroCost
	}

	margin := profit.Div(discounted).Mul(hundred)
	markup := discounted.Div(totalCost).Mul(hundred)

	return &model.PricingResult{
		Regime:          regime,
		DerivedPrice:    derived.Round(MoneyScale),
		DiscountedPrice: discounted.Round(MoneyScale),
		Profit:          profit.Round(MoneyScale),
		MarginPercent:   margin.Round(MoneyScale),
		MarkupRatio:     markup.Round(MoneyScale),
		Commission:      commission.Round(MoneyScale),
		Tax:             tax.Round(MoneyScale),
		ShippingFee:     shipping.Round(MoneyScale),
		FixedFee:        fixed.Round(MoneyScale),
		TotalCost:       totalCost.Round(MoneyScale),
		TotalWeight:     totalWeight,
		TotalCosts:      totalCosts.Round(MoneyScale),
	}, nil
}
