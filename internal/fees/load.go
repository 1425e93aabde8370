package fees

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Tables bundles both schedules as loaded at process start.
type Tables struct {
	Shipping *ShippingTable `json:"shipping"`
	FixedFee *FixedFeeTable `json:"fixed_fee"`
}

// DefaultTables returns the built-in schedules.
func DefaultTables() Tables {
	return Tables{
		Shipping: DefaultShippingTable(),
		FixedFee: DefaultFixedFeeTable(),
	}
}

// DecodeTables reads a JSON document of the form
//
//	{"shipping": {"brackets": [...], "rows": [...]}, "fixed_fee": {"ranges": [...]}}
//
// Either table may be omitted, in which case the default is kept. Unset
// shipping cells are written as null.
func DecodeTables(r io.Reader) (Tables, error) {
	var raw Tables
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return Tables{}, fmt.Errorf("decode fee tables: %w", err)
	}

	tables := DefaultTables()
	if raw.Shipping != nil {
		if err := raw.Shipping.Validate(); err != nil {
			return Tables{}, err
		}
		tables.Shipping = raw.Shipping
	}
	if raw.FixedFee != nil {
		if err := raw.FixedFee.Validate(); err != nil {
			return Tables{}, err
		}
		tables.FixedFee = raw.FixedFee
	}
	return tables, nil
}

// LoadTablesFile decodes fee tables from a JSON file.
func LoadTablesFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("open fee tables: %w", err)
	}
	defer f.Close()
	return DecodeTables(f)
}
