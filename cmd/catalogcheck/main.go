// Command catalogcheck loads a product spreadsheet the way the server does
// and prints what it found, optionally pricing one SKU.
//
//	catalogcheck -path produtos.xlsx [-sheet Planilha1] [-sku A1 -price 100 -tier Premium]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/model"
	"github.com/atmx/listing-engine/internal/pricing"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "catalogcheck:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("catalogcheck", flag.ContinueOnError)
	path := fs.String("path", os.Getenv("CATALOG_PATH"), "spreadsheet to load (.xlsx, .xlsm or .csv)")
	sheet := fs.String("sheet", os.Getenv("CATALOG_SHEET"), "worksheet name, first sheet when empty")
	sku := fs.String("sku", "", "SKU to inspect, first entry when empty")
	price := fs.String("price", "", "site price for a quote preview")
	markup := fs.String("markup", "0", "markup percent for the preview")
	tier := fs.String("tier", string(model.TierStandard), "listing tier for the preview")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-path is required")
	}

	cat, err := catalog.NewFileCatalog(*path, *sheet)
	if err != nil {
		return err
	}
	ctx := context.Background()

	fmt.Fprintf(out, "Columns: %v\n", cat.Columns())
	if nc := cat.NameColumn(); nc != "" {
		fmt.Fprintf(out, "Name column: %s\n", nc)
	} else {
		fmt.Fprintln(out, "Name column: none")
	}

	entries, err := cat.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Entries: %d\n", len(entries))
	if len(entries) == 0 {
		return nil
	}

	target := *sku
	if target == "" {
		target = entries[0].SKU
	}
	entry, err := cat.Lookup(ctx, target)
	if err != nil {
		return err
	}
	name := entry.Name
	if name == "" {
		name = "(none)"
	}
	fmt.Fprintf(out, "SKU: %s\nName: %s\nCost: %s\nWeight: %s\n",
		entry.SKU, name, entry.UnitCost.StringFixed(2), entry.UnitWeight.String())

	if *price == "" {
		return nil
	}
	sitePrice, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("-price: %w", err)
	}
	markupPct, err := decimal.NewFromString(*markup)
	if err != nil {
		return fmt.Errorf("-markup: %w", err)
	}

	engine, err := pricing.NewEngine(pricing.DefaultConfig(), cat)
	if err != nil {
		return err
	}
	req := model.PricingRequest{
		SKU:           entry.SKU,
		SitePrice:     sitePrice,
		MarkupPercent: markupPct,
		ListingTier:   model.ListingTier(*tier),
		Quantity:      1,
	}
	if err := pricing.ValidateRequest(&req); err != nil {
		return err
	}
	res, err := engine.Quote(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Regime: %s\nPrice: %s\nCommission: %s\nTax: %s\nShipping: %s\nFixed fee: %s\nProfit: %s\nMargin: %s%%\nMarkup: %s%%\n",
		res.Regime, res.DerivedPrice.StringFixed(2), res.Commission.StringFixed(2), res.Tax.StringFixed(2),
		res.ShippingFee.StringFixed(2), res.FixedFee.StringFixed(2), res.Profit.StringFixed(2),
		res.MarginPercent.StringFixed(2), res.MarkupRatio.StringFixed(2))
	return nil
}
