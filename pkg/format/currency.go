// Package format renders amounts for display using Spanish conventions.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.Spanish)
	hundred = decimal.NewFromInt(100)
)

// Currency returns a euro amount with Spanish separators (e.g., "161.650,22 €").
func Currency(amount float64) string {
	return printer.Sprintf("%.2f", roundHalfUp(amount)) + " €"
}

// WholeCurrency returns a euro amount without cents (e.g., "225.300 €").
func WholeCurrency(amount float64) string {
	rounded := decimal.NewFromFloat(amount).Round(0).InexactFloat64()
	return printer.Sprintf("%.0f", rounded) + " €"
}

// NumericCurrency returns a plain two-decimal amount without symbol or
// separators (e.g., "-1234.56"), suitable for CSV.
func NumericCurrency(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Percent renders a fraction as a Spanish percentage (e.g., 0.115 -> "11,5 %").
func Percent(rate float64) string {
	value := decimal.NewFromFloat(rate).Mul(hundred).Round(2).String()
	return strings.Replace(value, ".", ",", 1) + " %"
}

// Area renders a surface in square meters (e.g., "64,3 m²").
func Area(squareMeters float64) string {
	value := decimal.NewFromFloat(squareMeters).Round(1).StringFixed(1)
	return strings.Replace(value, ".", ",", 1) + " m²"
}

func roundHalfUp(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}
