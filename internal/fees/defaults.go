package fees

import "github.com/shopspring/decimal"

// cell builds a set table cell.
func cell(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

// unset marks a price/weight combination that is not offered.
var unset = decimal.NullDecimal{}

func row(maxWeight string, cells ...decimal.NullDecimal) WeightRow {
	return WeightRow{MaxWeight: decimal.RequireFromString(maxWeight), Fees: cells}
}

func bracket(min, max string) PriceBracket {
	return PriceBracket{Min: decimal.RequireFromString(min), Max: decimal.RequireFromString(max)}
}

// DefaultShippingTable returns the marketplace shipping schedule for listings
// priced at 79 or more. Columns are price brackets, rows are weight limits in
// kg. Heavy rows above 9 kg are only offered in the top price bracket.
func DefaultShippingTable() *ShippingTable {
	return &ShippingTable{
		Brackets: []PriceBracket{
			bracket("79", "99.99"),
			bracket("100", "118.99"),
			bracket("120", "149.99"),
			bracket("150", "199.99"),
			bracket("200", "999999"),
		},
		Rows: []WeightRow{
			row("0.3", cell("11.97"), cell("13.97"), cell("15.96"), cell("17.96"), cell("19.95")),
			row("0.5", cell("12.87"), cell("15.02"), cell("17.16"), cell("19.31"), cell("21.45")),
			row("1", cell("13.47"), cell("15.72"), cell("17.96"), cell("20.21"), cell("22.45")),
			row("2", cell("14.07"), cell("16.42"), cell("18.76"), cell("21.11"), cell("23.45")),
			row("3", cell("14.97"), cell("17.47"), cell("19.96"), cell("22.46"), cell("24.95")),
			row("4", cell("17.87"), cell("19.97"), cell("21.56"), cell("24.26"), cell("26.95")),
			row("5", cell("20.47"), cell("22.47"), cell("22.76"), cell("25.61"), cell("28.45")),
			row("9", cell("22.76"), cell("24.97"), cell("24.76"), cell("27.46"), cell("44.45")),
			row("13", unset, unset, unset, unset, cell("65.95")),
			row("17", unset, unset, unset, unset, cell("73.45")),
			row("23", unset, unset, unset, unset, cell("85.95")),
			row("30", unset, unset, unset, unset, cell("98.95")),
			row("40", unset, unset, unset, unset, cell("101.95")),
		},
	}
}

// DefaultFixedFeeTable returns the flat fee schedule for listings below 79.
// Ranges share their boundary prices; the lower range wins.
func DefaultFixedFeeTable() *FixedFeeTable {
	return &FixedFeeTable{
		Ranges: []FixedFeeRange{
			{Min: decimal.RequireFromString("12.50"), Max: decimal.RequireFromString("29.00"), Fee: decimal.RequireFromString("6.25")},
			{Min: decimal.RequireFromString("29.00"), Max: decimal.RequireFromString("50.00"), Fee: decimal.RequireFromString("6.50")},
			{Min: decimal.RequireFromString("50.00"), Max: decimal.RequireFromString("79.00"), Fee: decimal.RequireFromString("6.75")},
		},
	}
}
