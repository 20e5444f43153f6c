// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/inmoreal/internal/analysis"
	"github.com/iwvelando/inmoreal/internal/calculator"
	"github.com/iwvelando/inmoreal/internal/regions"
)

// FindAnalysis finds an analysis by scenario name in the results slice.
// Returns a pointer to the analysis if found, nil otherwise.
func FindAnalysis(results []analysis.Analysis, name string) *analysis.Analysis {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// NewTestCalculator returns a calculator over the built-in region table with
// the given overrides applied. It panics on an invalid override.
func NewTestCalculator(policy calculator.GainPolicy, overrides map[string]float64) *calculator.Calculator {
	table := regions.Default()
	if len(overrides) > 0 {
		merged, err := table.Merge(overrides)
		if err != nil {
			panic(err)
		}
		table = merged
	}
	return calculator.New(table, policy)
}
