// Package fees implements the marketplace fee schedules used by the pricing
// engine: a two-dimensional shipping table (price bracket × weight row) for
// listings at or above the shipping threshold, and a flat fixed-fee table for
// cheaper listings.
//
// Both tables are step functions resolved by an ordered linear scan. There is
// no interpolation, and a lookup that matches nothing yields a zero fee rather
// than an error.
package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyTable is returned when a table has no brackets or rows.
	ErrEmptyTable = errors.New("fees: table has no entries")

	// ErrInvalidRange is returned when a range has min > max or a negative bound.
	ErrInvalidRange = errors.New("fees: invalid range")

	// ErrUnorderedRows is returned when weight rows are not strictly ascending.
	ErrUnorderedRows = errors.New("fees: weight rows must be strictly ascending")

	// ErrRowWidth is returned when a weight row does not carry one cell per
	// price bracket.
	ErrRowWidth = errors.New("fees: weight row width does not match price brackets")

	// ErrNegativeFee is returned when a table holds a fee below zero.
	ErrNegativeFee = errors.New("fees: fee must not be negative")
)

// PriceBracket is an inclusive [Min, Max] price range.
type PriceBracket struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Contains reports whether price lies within the bracket, bounds included.
func (b PriceBracket) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(b.Min) && price.LessThanOrEqual(b.Max)
}

func (b PriceBracket) validate() error {
	if b.Min.IsNegative() || b.Min.GreaterThan(b.Max) {
		return fmt.Errorf("%w: [%s, %s]", ErrInvalidRange, b.Min, b.Max)
	}
	return nil
}

// WeightRow holds one fee per price bracket for shipments weighing up to
// MaxWeight kg. A null cell means the combination is not offered.
type WeightRow struct {
	MaxWeight decimal.Decimal       `json:"max_weight"`
	Fees      []decimal.NullDecimal `json:"fees"`
}

// ShippingTable resolves the shipping fee for listings in the shipping regime.
type ShippingTable struct {
	Brackets []PriceBracket `json:"brackets"`
	Rows     []WeightRow    `json:"rows"`
}

// BracketIndex returns the index of the first bracket containing price, or
// -1 when price falls outside every bracket.
func (t *ShippingTable) BracketIndex(price decimal.Decimal) int {
	for i, b := range t.Brackets {
		if b.Contains(price) {
			return i
		}
	}
	return -1
}

// RowIndex returns the index of the first row whose threshold is at least
// weight, or -1 when weight exceeds every threshold.
func (t *ShippingTable) RowIndex(weight decimal.Decimal) int {
	for i, row := range t.Rows {
		if weight.LessThanOrEqual(row.MaxWeight) {
			return i
		}
	}
	return -1
}

// Fee returns the shipping fee at the intersection of the bracket containing
// price and the first row that fits weight. Any miss, including an unset
// cell, yields zero.
func (t *ShippingTable) Fee(price, weight decimal.Decimal) decimal.Decimal {
	col := t.BracketIndex(price)
	if col < 0 {
		return decimal.Zero
	}
	row := t.RowIndex(weight)
	if row < 0 {
		return decimal.Zero
	}
	cells := t.Rows[row].Fees
	if col >= len(cells) || !cells[col].Valid {
		return decimal.Zero
	}
	return cells[col].Decimal
}

// Validate checks the structural invariants the lookup relies on.
func (t *ShippingTable) Validate() error {
	if len(t.Brackets) == 0 || len(t.Rows) == 0 {
		return fmt.Errorf("%w: shipping", ErrEmptyTable)
	}
	for _, b := range t.Brackets {
		if err := b.validate(); err != nil {
			return err
		}
	}
	for i, row := range t.Rows {
		if i > 0 && !row.MaxWeight.GreaterThan(t.Rows[i-1].MaxWeight) {
			return fmt.Errorf("%w: %s after %s", ErrUnorderedRows, row.MaxWeight, t.Rows[i-1].MaxWeight)
		}
		if len(row.Fees) != len(t.Brackets) {
			return fmt.Errorf("%w: row %s has %d cells, want %d",
				ErrRowWidth, row.MaxWeight, len(row.Fees), len(t.Brackets))
		}
		for _, cell := range row.Fees {
			if cell.Valid && cell.Decimal.IsNegative() {
				return fmt.Errorf("%w: %s", ErrNegativeFee, cell.Decimal)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hold a table nobody else mutates.
func (t *ShippingTable) Clone() *ShippingTable {
	out := &ShippingTable{
		Brackets: append([]PriceBracket(nil), t.Brackets...),
		Rows:     make([]WeightRow, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = WeightRow{
			MaxWeight: row.MaxWeight,
			Fees:      append([]decimal.NullDecimal(nil), row.Fees...),
		}
	}
	return out
}

// FixedFeeRange charges Fee for prices within the inclusive [Min, Max] range.
type FixedFeeRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
	Fee decimal.Decimal `json:"fee"`
}

// FixedFeeTable resolves the flat fee for listings below the shipping
// threshold.
type FixedFeeTable struct {
	Ranges []FixedFeeRange `json:"ranges"`
}

// Fee returns the fee of the first range containing price, or zero when price
// falls in a gap.
func (t *FixedFeeTable) Fee(price decimal.Decimal) decimal.Decimal {
	for _, r := range t.Ranges {
		if price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max) {
			return r.Fee
		}
	}
	return decimal.Zero
}

// Validate checks that every range is well formed.
func (t *FixedFeeTable) Validate() error {
	if len(t.Ranges) == 0 {
		return fmt.Errorf("%w: fixed fee", ErrEmptyTable)
	}
	for _, r := range t.Ranges {
		if err := (PriceBracket{Min: r.Min, Max: r.Max}).validate(); err != nil {
			return err
		}
		if r.Fee.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeFee, r.Fee)
		}
	}
	return nil
}

// Clone returns a copy of the table.
func (t *FixedFeeTable) Clone() *FixedFeeTable {
	return &FixedFeeTable{Ranges: append([]FixedFeeRange(nil), t.Ranges...)}
}
