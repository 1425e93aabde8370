package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/atmx/listing-engine/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("catalog: unsupported spreadsheet format")
	ErrMissingColumn     = errors.New("catalog: required column missing")
	ErrEmptySheet        = errors.New("catalog: sheet has no header row")
	ErrBadValue          = errors.New("catalog: invalid cell value")
)

// Header names are matched after trimming, case-insensitively.
var (
	skuHeaders    = []string{"sku"}
	costHeaders   = []string{"custo", "cost"}
	weightHeaders = []string{"peso", "weight"}
	nameHeaders   = []string{"nome", "produto", "descrição", "descricao", "titulo", "título", "name"}
)

// Sheet is a parsed product spreadsheet.
type Sheet struct {
	// Columns are the trimmed header names in file order.
	Columns []string

	// NameColumn is the header used for product names, empty when the
	// sheet has none.
	NameColumn string

	Entries []model.CatalogEntry
}

// ReadSpreadsheet parses a product workbook. Excel files (.xlsx, .xlsm) are
// read from sheetName, or the first sheet when it is empty. CSV files ignore
// sheetName.
func ReadSpreadsheet(path, sheetName string) (*Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, sheetName)
	case ".csv":
		rows, err = readCSVFile(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	sheet, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sheet, nil
}

func readWorkbook(path, sheetName string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		sheetName = sheets[0]
	}

	// Raw values keep currency and thousands formatting out of numbers.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func parseRows(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	columns := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		columns[i] = strings.TrimSpace(h)
	}

	skuCol := findColumn(columns, skuHeaders)
	costCol := findColumn(columns, costHeaders)
	weightCol := findColumn(columns, weightHeaders)
	nameCol := firstMatchingColumn(columns, nameHeaders)

	for _, req := range []struct {
		name string
		idx  int
	}{{"SKU", skuCol}, {"custo", costCol}, {"peso", weightCol}} {
		if req.idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req.name)
		}
	}

	sheet := &Sheet{Columns: columns}
	if nameCol >= 0 {
		sheet.NameColumn = columns[nameCol]
	}

	for i, row := range rows[1:] {
		line := i + 2
		sku := model.NormalizeSKU(cell(row, skuCol))
		if sku == "" {
			continue
		}

		cost, err := parseNumber(cell(row, costCol))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d (%s) cost: %v", ErrBadValue, line, sku, err)
		}
		weight, err := parseNumber(cell(row, weightCol))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d (%s) weight: %v", ErrBadValue, line, sku, err)
		}
		if cost.IsNegative() || weight.IsNegative() {
			return nil, fmt.Errorf("%w: row %d (%s) has a negative cost or weight", ErrBadValue, line, sku)
		}

		entry := model.CatalogEntry{SKU: sku, UnitCost: cost, UnitWeight: weight}
		if nameCol >= 0 {
			entry.Name = strings.TrimSpace(cell(row, nameCol))
		}
		sheet.Entries = append(sheet.Entries, entry)
	}

	return sheet, nil
}

func findColumn(columns, names []string) int {
	for _, name := range names {
		for i, c := range columns {
			if strings.ToLower(c) == name {
				return i
			}
		}
	}
	return -1
}

// firstMatchingColumn returns the leftmost column matching any of names, so
// the sheet's column order decides between aliases.
func firstMatchingColumn(columns, names []string) int {
	for i, c := range columns {
		for _, name := range names {
			if strings.ToLower(c) == name {
				return i
			}
		}
	}
	return -1
}

// cell tolerates short rows; spreadsheet readers drop trailing empty cells.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// parseNumber accepts both "1234.56" and the Brazilian "1.234,56".
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty cell")
	}
	if comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, "."); comma > dot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}
