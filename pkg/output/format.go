// Package output provides utilities for formatting and displaying scenario
// analyses.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/inmoreal/internal/analysis"
	"github.com/iwvelando/inmoreal/pkg/constants"
	"github.com/iwvelando/inmoreal/pkg/format"
	"github.com/iwvelando/inmoreal/pkg/mathutil"
)

// Write renders analyses to w in the named output format.
func Write(w io.Writer, outputFormat string, analyses []analysis.Analysis) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, analyses)
	case constants.OutputFormatCSV:
		return CsvFormat(w, analyses)
	case constants.OutputFormatJSON:
		return JSONFormat(w, analyses)
	}
	return fmt.Errorf("unknown output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, analyses []analysis.Analysis) error {
	var b strings.Builder
	for i, a := range analyses {
		r := a.Result
		fmt.Fprintf(&b, "--- Results for scenario %s ---\n", a.Name)
		fmt.Fprintf(&b, "Sale     | %s\n", place(a.Sale.Region, a.Sale.Locality, a.Sale.Neighborhood))
		fmt.Fprintf(&b, "         | %s at %s/m² (%s)\n",
			format.Area(a.Sale.AreaSquareMeters), format.WholeCurrency(a.SalePrice.Value), a.SalePrice.Source)
		fmt.Fprintf(&b, "         | Gross sale value:      %s\n", format.WholeCurrency(r.GrossSaleValue))
		fmt.Fprintf(&b, "         | Agent commission:      %s\n", format.Currency(r.AgentCommissionAmount))
		levy := format.Currency(r.MunicipalGainAmount)
		if mathutil.IsZero(r.MunicipalGainAmount) {
			levy = "not charged"
		}
		fmt.Fprintf(&b, "         | Municipal gain levy:   %s\n", levy)
		fmt.Fprintf(&b, "         | Closing costs:         %s\n", format.Currency(a.Sale.FixedClosingCost))
		fmt.Fprintf(&b, "         | Net sale proceeds:     %s\n", format.WholeCurrency(r.NetSaleProceeds))
		fmt.Fprintf(&b, "Purchase | %s\n", place(a.Purchase.Region, a.Purchase.Locality, a.Purchase.Neighborhood))
		fmt.Fprintf(&b, "         | Budget (%s reinvested): %s, surplus %s\n",
			format.Percent(a.Purchase.ReinvestmentFraction), format.WholeCurrency(r.PurchaseBudget), format.WholeCurrency(r.CashSurplus))
		fmt.Fprintf(&b, "         | Max property price:    %s\n", format.Currency(r.MaxAffordablePropertyPrice))
		fmt.Fprintf(&b, "         | Transfer tax (%s):  %s\n", format.Percent(r.TransferTaxRate), format.Currency(r.TransferTaxAmount))
		fmt.Fprintf(&b, "         | Acquisition fees:      %s\n", format.Currency(r.AcquisitionFeeAmount))
		fmt.Fprintf(&b, "         | Affordable area:       %s at %s/m² (%s)\n",
			format.Area(a.AffordableArea), format.WholeCurrency(a.PurchasePrice.Value), a.PurchasePrice.Source)
		if a.TargetPrice != nil && a.RequiredReinvestment != nil {
			fmt.Fprintf(&b, "         | Reinvestment for %s: %s\n",
				format.WholeCurrency(*a.TargetPrice), format.Percent(*a.RequiredReinvestment))
		}
		for _, note := range a.Notes {
			fmt.Fprintf(&b, "Note     | %s\n", note)
		}
		if i < len(analyses)-1 {
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var csvHeader = []string{
	"scenario", "sale region", "sale price per m2", "sale price source", "area m2",
	"gross sale value", "agent commission", "municipal gain", "closing costs", "net sale proceeds",
	"purchase region", "purchase price per m2", "purchase price source", "reinvestment fraction",
	"purchase budget", "cash surplus", "transfer tax rate", "max property price",
	"transfer tax", "acquisition fees", "affordable area m2", "required reinvestment", "notes",
}

// CsvFormat outputs one row per analysis in comma-separated value format.
func CsvFormat(w io.Writer, analyses []analysis.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range analyses {
		r := a.Result
		required := ""
		if a.RequiredReinvestment != nil {
			required = ratio(*a.RequiredReinvestment)
		}
		row := []string{
			a.Name, a.Sale.Region, format.NumericCurrency(a.SalePrice.Value), string(a.SalePrice.Source),
			ratio(a.Sale.AreaSquareMeters),
			format.NumericCurrency(r.GrossSaleValue), format.NumericCurrency(r.AgentCommissionAmount),
			format.NumericCurrency(r.MunicipalGainAmount), format.NumericCurrency(a.Sale.FixedClosingCost),
			format.NumericCurrency(r.NetSaleProceeds),
			a.Purchase.Region, format.NumericCurrency(a.PurchasePrice.Value), string(a.PurchasePrice.Source),
			ratio(a.Purchase.ReinvestmentFraction),
			format.NumericCurrency(r.PurchaseBudget), format.NumericCurrency(r.CashSurplus),
			ratio(r.TransferTaxRate), format.NumericCurrency(r.MaxAffordablePropertyPrice),
			format.NumericCurrency(r.TransferTaxAmount), format.NumericCurrency(r.AcquisitionFeeAmount),
			format.NumericCurrency(a.AffordableArea), required, strings.Join(a.Notes, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CSV rendering of analyses.
func CsvString(analyses []analysis.Analysis) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, analyses); err != nil {
		return ""
	}
	return buf.String()
}

// JSONFormat outputs the analyses as an indented JSON array of Reports.
func JSONFormat(w io.Writer, analyses []analysis.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReports(analyses))
}

func place(region, locality, neighborhood string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{neighborhood, locality, region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
