// Package regions holds the transfer-tax (ITP) rate for each Spanish
// autonomous community. A Table is built once at start-up and never mutated,
// so it is safe to share between goroutines.
package regions

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownRegionError reports a lookup for a region that has no entry.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown region %q: no transfer tax rate configured", e.Region)
}

// InvalidRateError reports a rate outside [0,1) or an unnamed region.
type InvalidRateError struct {
	Region string
	Rate   float64
}

func (e *InvalidRateError) Error() string {
	if strings.TrimSpace(e.Region) == "" {
		return "region name must not be empty"
	}
	return fmt.Sprintf("invalid transfer tax rate %g for region %q: must be in [0,1)", e.Rate, e.Region)
}

// Table maps a region display name to its transfer-tax fraction.
type Table struct {
	rates map[string]float64
}

var defaultRates = map[string]float64{
	"Andalucía":            0.07,
	"Aragón":               0.08,
	"Asturias":             0.08,
	"Baleares":             0.08,
	"Canarias":             0.065,
	"Cantabria":            0.08,
	"Castilla y León":      0.08,
	"Castilla-La Mancha":   0.09,
	"Cataluña":             0.10,
	"Comunidad Valenciana": 0.10,
	"Extremadura":          0.08,
	"Galicia":              0.09,
	"Madrid":               0.06,
	"Murcia":               0.08,
	"Navarra":              0.06,
	"País Vasco":           0.04,
	"La Rioja":             0.07,
}

// Default returns the built-in table of regional transfer-tax rates.
func Default() *Table {
	t, err := New(defaultRates)
	if err != nil {
		panic(fmt.Sprintf("built-in region table is invalid: %v", err))
	}
	return t
}

// New builds a table from a copy of rates.
func New(rates map[string]float64) (*Table, error) {
	copied := make(map[string]float64, len(rates))
	for region, rate := range rates {
		if err := checkRate(region, rate); err != nil {
			return nil, err
		}
		copied[region] = rate
	}
	return &Table{rates: copied}, nil
}

func checkRate(region string, rate float64) error {
	if strings.TrimSpace(region) == "" || math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return &InvalidRateError{Region: region, Rate: rate}
	}
	return nil
}

type tableFile struct {
	Rates map[string]float64 `yaml:"rates"`
}

// Load reads a YAML file of the form
//
//	rates:
//	  Madrid: 0.06
//
// and returns a table containing exactly those entries.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read region table: %w", err)
	}
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse region table: %w", err)
	}
	if len(file.Rates) == 0 {
		return nil, errors.New("region table file defines no rates")
	}
	return New(file.Rates)
}

// Merge returns a new table with overrides layered on top of t.
func (t *Table) Merge(overrides map[string]float64) (*Table, error) {
	merged := make(map[string]float64, len(t.rates)+len(overrides))
	for region, rate := range t.rates {
		merged[region] = rate
	}
	for region, rate := range overrides {
		merged[region] = rate
	}
	return New(merged)
}

// Rate returns the transfer-tax fraction for region.
func (t *Table) Rate(region string) (float64, error) {
	rate, ok := t.rates[region]
	if !ok {
		return 0, &UnknownRegionError{Region: region}
	}
	return rate, nil
}

// Has reports whether region has an entry.
func (t *Table) Has(region string) bool {
	_, ok := t.rates[region]
	return ok
}

// Regions returns the region names in sorted order.
func (t *Table) Regions() []string {
	names := make([]string, 0, len(t.rates))
	for region := range t.rates {
		names = append(names, region)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of regions.
func (t *Table) Len() int {
	return len(t.rates)
}
