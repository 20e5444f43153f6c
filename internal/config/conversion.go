package config

import (
	"time"

	"github.com/iwvelando/inmoreal/internal/calculator"
	"github.com/iwvelando/inmoreal/pkg/configprocessor"
	"github.com/iwvelando/inmoreal/pkg/datetime"
	"github.com/iwvelando/inmoreal/pkg/mathutil"
)

// HoldingMonths returns how long the sold property was held, or -1 when no
// acquisition date is configured. A missing sale date means the sale happens
// in the month of now.
func (s Scenario) HoldingMonths(now time.Time) (int, error) {
	if s.Sale.AcquisitionDate == "" {
		return -1, nil
	}
	saleDate := s.Sale.SaleDate
	if saleDate == "" {
		saleDate = now.Format(DateTimeLayout)
	}
	return datetime.MonthsBetween(s.Sale.AcquisitionDate, saleDate)
}

// SaleInput converts the scenario's sale into calculator input, filling unset
// values from the configuration defaults.
func (c *Configuration) SaleInput(s Scenario, pricePerSquareMeter float64, now time.Time) (calculator.SaleInput, error) {
	holding, err := s.HoldingMonths(now)
	if err != nil {
		return calculator.SaleInput{}, err
	}
	return calculator.SaleInput{
		Region:              s.Sale.Region,
		Locality:            s.Sale.Locality,
		Neighborhood:        s.Sale.Neighborhood,
		AreaSquareMeters:    s.Sale.Area,
		PricePerSquareMeter: pricePerSquareMeter,
		AgentCommissionRate: pick(s.Sale.AgentCommissionRate, c.Defaults.AgentCommissionRate),
		FixedClosingCost:    pick(s.Sale.FixedClosingCost, c.Defaults.FixedClosingCost),
		MunicipalGainRate:   pick(s.Sale.MunicipalGainRate, c.Defaults.MunicipalGainRate),
		HoldingMonths:       holding,
	}, nil
}

// PurchaseInput converts the scenario's purchase into calculator input.
func (c *Configuration) PurchaseInput(s Scenario) calculator.PurchaseInput {
	return calculator.PurchaseInput{
		Region:                   s.Purchase.Region,
		Locality:                 s.Purchase.Locality,
		Neighborhood:             s.Purchase.Neighborhood,
		FixedAcquisitionCostRate: pick(s.Purchase.AcquisitionCostRate, c.Defaults.AcquisitionCostRate),
		ReinvestmentFraction:     mathutil.PercentToFraction(c.ReinvestmentPercent(s)),
	}
}

// ReinvestmentPercent returns the scenario's reinvestment share in percent.
func (c *Configuration) ReinvestmentPercent(s Scenario) float64 {
	return pick(s.Purchase.ReinvestmentPercent, c.Defaults.ReinvestmentPercent)
}

func pick(value, fallback *float64) float64 {
	if value != nil {
		return *value
	}
	if fallback != nil {
		return *fallback
	}
	return 0
}

func (c *Configuration) scenarioInfos() []configprocessor.ScenarioInfo {
	infos := make([]configprocessor.ScenarioInfo, 0, len(c.Scenarios))
	for _, s := range c.Scenarios {
		infos = append(infos, configprocessor.ScenarioInfo{
			Name:   s.Name,
			Active: s.Active,
			Sale: configprocessor.SaleInfo{
				Region:              s.Sale.Region,
				Area:                s.Sale.Area,
				PricePerSquareMeter: s.Sale.PricePerSquareMeter,
				AcquisitionDate:     s.Sale.AcquisitionDate,
				SaleDate:            s.Sale.SaleDate,
			},
			Purchase: configprocessor.PurchaseInfo{
				Region:              s.Purchase.Region,
				ReinvestmentPercent: c.ReinvestmentPercent(s),
				PricePerSquareMeter: s.Purchase.PricePerSquareMeter,
				TargetPrice:         s.Purchase.TargetPrice,
			},
		})
	}
	return infos
}
