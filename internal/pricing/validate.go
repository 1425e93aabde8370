package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/model"
)

// ErrInvalidInput is returned when a request field is missing or out of range.
var ErrInvalidInput = errors.New("invalid input")

var hundred = decimal.NewFromInt(100)

// ValidateRequest normalizes the SKU and tier of req in place and checks
// every field the engine relies on.
func ValidateRequest(req *model.PricingRequest) error {
	req.SKU = model.NormalizeSKU(req.SKU)
	req.ListingTier = model.ParseListingTier(string(req.ListingTier))

	switch {
	case req.SKU == "":
		return fmt.Errorf("%w: sku is required", ErrInvalidInput)
	case !req.SitePrice.IsPositive():
		return fmt.Errorf("%w: site_price must be greater than 0", ErrInvalidInput)
	case req.MarkupPercent.IsNegative():
		return fmt.Errorf("%w: markup_percent must not be negative", ErrInvalidInput)
	case req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred):
		return fmt.Errorf("%w: discount_percent must be between 0 and 100", ErrInvalidInput)
	case req.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	return nil
}
