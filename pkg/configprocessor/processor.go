// Package configprocessor provides shared configuration processing utilities.
package configprocessor

import (
	"fmt"
	"time"

	"github.com/iwvelando/inmoreal/pkg/datetime"
	"github.com/iwvelando/inmoreal/pkg/validation"
)

// SaleInfo represents sale configuration information
type SaleInfo struct {
	Region              string
	Area                float64
	PricePerSquareMeter *float64
	AcquisitionDate     string
	SaleDate            string
}

// PurchaseInfo represents purchase configuration information
type PurchaseInfo struct {
	Region              string
	ReinvestmentPercent float64
	PricePerSquareMeter *float64
	TargetPrice         *float64
}

// ScenarioInfo represents scenario configuration information
type ScenarioInfo struct {
	Name     string
	Active   bool
	Sale     SaleInfo
	Purchase PurchaseInfo
}

// Processor handles configuration processing and validation
type Processor struct {
	knownRegion func(string) bool
	now         func() time.Time
}

// NewProcessor creates a new configuration processor. knownRegion reports
// whether a region has a transfer-tax rate; nil accepts every region.
func NewProcessor(knownRegion func(string) bool) *Processor {
	if knownRegion == nil {
		knownRegion = func(string) bool { return true }
	}
	return &Processor{knownRegion: knownRegion, now: time.Now}
}

// ValidateConfiguration validates the scenarios and returns warnings
func (p *Processor) ValidateConfiguration(scenarios []ScenarioInfo) []string {
	var warnings []string

	active := 0
	seen := make(map[string]bool)
	for _, scenario := range scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario name '%s' is used more than once", scenario.Name))
		}
		seen[scenario.Name] = true

		if !scenario.Active {
			continue // Skip inactive scenarios
		}
		active++
		warnings = append(warnings, p.validateScenario(scenario)...)
	}

	if active == 0 {
		warnings = append(warnings, "No active scenarios configured")
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

func (p *Processor) validateScenario(scenario ScenarioInfo) []string {
	var warnings []string
	prefix := fmt.Sprintf("Scenario '%s'", scenario.Name)

	sale := scenario.Sale
	if sale.Region != "" && !p.knownRegion(sale.Region) {
		warnings = append(warnings, fmt.Sprintf("%s sale region '%s' has no transfer tax rate", prefix, sale.Region))
	}
	if err := validation.ValidatePositive("sale area", sale.Area); err != nil {
		warnings = append(warnings, fmt.Sprintf("%s %s", prefix, err))
	}
	if sale.PricePerSquareMeter != nil {
		if err := validation.ValidatePositive("sale price per square meter", *sale.PricePerSquareMeter); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %s", prefix, err))
		}
	}
	if sale.AcquisitionDate != "" {
		// A missing sale date means the sale happens this month.
		end := sale.SaleDate
		if end == "" {
			end = p.now().Format(datetime.DateTimeLayout)
		}
		if _, err := datetime.MonthsBetween(sale.AcquisitionDate, end); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s holding period cannot be determined: %v", prefix, err))
		}
	} else if sale.SaleDate != "" {
		warnings = append(warnings, fmt.Sprintf("%s sets a sale date without an acquisition date", prefix))
	}

	purchase := scenario.Purchase
	if !p.knownRegion(purchase.Region) {
		warnings = append(warnings, fmt.Sprintf("%s purchase region '%s' has no transfer tax rate", prefix, purchase.Region))
	}
	if err := validation.ValidatePercent("reinvestment percent", purchase.ReinvestmentPercent); err != nil {
		warnings = append(warnings, fmt.Sprintf("%s %s", prefix, err))
	}
	if purchase.PricePerSquareMeter != nil {
		if err := validation.ValidatePositive("purchase price per square meter", *purchase.PricePerSquareMeter); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %s", prefix, err))
		}
	}
	if purchase.TargetPrice != nil {
		if err := validation.ValidatePositive("target price", *purchase.TargetPrice); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %s", prefix, err))
		}
	}

	return warnings
}
