package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/fees"
	"github.com/atmx/listing-engine/internal/model"
)

// ErrInvalidConfig is returned by NewEngine when rates or tables are unusable.
var ErrInvalidConfig = errors.New("pricing: invalid configuration")

// Rates holds the percentage rates applied to the discounted price, expressed
// as fractions (0.191 = 19.1%).
type Rates struct {
	Tax decimal.Decimal `json:"tax"`

	// Commission maps known listing tiers to their commission rate.
	Commission map[model.ListingTier]decimal.Decimal `json:"commission"`

	// DefaultCommission applies to tiers missing from Commission.
	DefaultCommission decimal.Decimal `json:"default_commission"`
}

// CommissionRate returns the rate for tier, falling back to the default rate
// for unrecognized tiers.
func (r Rates) CommissionRate(tier model.ListingTier) decimal.Decimal {
	if rate, ok := r.Commission[tier]; ok {
		return rate
	}
	return r.DefaultCommission
}

// Config is everything the engine needs besides the catalog.
type Config struct {
	Rates Rates `json:"rates"`

	// ShippingThreshold is the derived price from which the shipping table
	// applies instead of the fixed-fee table.
	ShippingThreshold decimal.Decimal `json:"shipping_threshold"`

	Tables fees.Tables `json:"tables"`
}

// DefaultConfig returns the marketplace's published rates and fee tables.
func DefaultConfig() Config {
	return Config{
		Rates: Rates{
			Tax: decimal.RequireFromString("0.191"),
			Commission: map[model.ListingTier]decimal.Decimal{
				model.TierStandard: decimal.RequireFromString("0.115"),
				model.TierPremium:  decimal.RequireFromString("0.165"),
			},
			DefaultCommission: decimal.RequireFromString("0.15"),
		},
		ShippingThreshold: decimal.NewFromInt(79),
		Tables:            fees.DefaultTables(),
	}
}

func validRate(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s rate %s outside [0, 1]", ErrInvalidConfig, name, rate)
	}
	return nil
}

// Validate checks rates, threshold and both tables.
func (c Config) Validate() error {
	if err := validRate("tax", c.Rates.Tax); err != nil {
		return err
	}
	if err := validRate("default commission", c.Rates.DefaultCommission); err != nil {
		return err
	}
	for tier, rate := range c.Rates.Commission {
		if err := validRate(string(tier)+" commission", rate); err != nil {
			return err
		}
	}
	if !c.ShippingThreshold.IsPositive() {
		return fmt.Errorf("%w: shipping threshold must be positive", ErrInvalidConfig)
	}
	if c.Tables.Shipping == nil || c.Tables.FixedFee == nil {
		return fmt.Errorf("%w: missing fee table", ErrInvalidConfig)
	}
	if err := c.Tables.Shipping.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Tables.FixedFee.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// clone deep-copies the config so the engine owns its tables and rate map.
func (c Config) clone() Config {
	commission := make(map[model.ListingTier]decimal.Decimal, len(c.Rates.Commission))
	for k, v := range c.Rates.Commission {
		commission[k] = v
	}
	c.Rates.Commission = commission
	c.Tables = fees.Tables{
		Shipping: c.Tables.Shipping.Clone(),
		FixedFee: c.Tables.FixedFee.Clone(),
	}
	return c
}
