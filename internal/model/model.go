// Package model defines the core domain types shared across the listing engine.
// All monetary and weight values use shopspring/decimal.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ListingTier is the marketplace listing type. It selects the commission
// rate charged on the discounted price.
type ListingTier string

const (
	TierStandard ListingTier = "Standard"
	TierPremium  ListingTier = "Premium"
)

var tierAliases = map[string]ListingTier{
	"standard": TierStandard,
	"classic":  TierStandard,
	"classico": TierStandard,
	"clássico": TierStandard,
	"premium":  TierPremium,
}

// ParseListingTier maps a user-supplied tier name onto a known tier.
// Unrecognized names are returned trimmed but otherwise unchanged; they are
// priced with the default commission rate.
func ParseListingTier(s string) ListingTier {
	trimmed := strings.TrimSpace(s)
	if tier, ok := tierAliases[strings.ToLower(trimmed)]; ok {
		return tier
	}
	return ListingTier(trimmed)
}

// Known reports whether t is one of the named tiers.
func (t ListingTier) Known() bool {
	return t == TierStandard || t == TierPremium
}

// NormalizeSKU trims surrounding whitespace. Matching is otherwise exact and
// case-sensitive.
func NormalizeSKU(sku string) string {
	return strings.TrimSpace(sku)
}

// CatalogEntry is immutable per-SKU reference data.
type CatalogEntry struct {
	SKU        string          `json:"sku" db:"sku"`
	Name       string          `json:"name,omitempty" db:"name"`
	UnitCost   decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	UnitWeight decimal.Decimal `json:"unit_weight" db:"unit_weight"` // kg
}

// PricingRequest carries the inputs of one quote.
type PricingRequest struct {
	SKU             string          `json:"sku"`
	SitePrice       decimal.Decimal `json:"site_price"`
	MarkupPercent   decimal.Decimal `json:"markup_percent"`
	ListingTier     ListingTier     `json:"listing_tier"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
}

// Regime identifies which fee schedule applied to a quote.
type Regime string

const (
	RegimeShipping Regime = "shipping"
	RegimeFixedFee Regime = "fixed_fee"
)

// PricingResult is the breakdown of one quote. Currency values and the two
// ratios are rounded to 2 decimal places.
type PricingResult struct {
	Regime          Regime          `json:"regime"`
	DerivedPrice    decimal.Decimal `json:"derived_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Profit          decimal.Decimal `json:"profit"`
	MarginPercent   decimal.Decimal `json:"margin_percent"` // profit / discounted price
	MarkupRatio     decimal.Decimal `json:"markup_ratio"`   // discounted price / total cost
	Commission      decimal.Decimal `json:"commission"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	FixedFee        decimal.Decimal `json:"fixed_fee"`
	TotalCost       decimal.Decimal `json:"total_cost"`   // unit cost × quantity
	TotalWeight     decimal.Decimal `json:"total_weight"` // unit weight × quantity
	TotalCosts      decimal.Decimal `json:"total_costs"`  // cost + commission + tax + fees
}
