package output

import (
	"github.com/iwvelando/inmoreal/internal/analysis"
	"github.com/iwvelando/inmoreal/internal/estimator"
	"github.com/iwvelando/inmoreal/pkg/format"
	"github.com/iwvelando/inmoreal/pkg/mathutil"
)

// Report is the machine-readable view of an analysis shared by the JSON
// output and the HTTP API.
type Report struct {
	Name     string         `json:"name"`
	Sale     SaleReport     `json:"sale"`
	Purchase PurchaseReport `json:"purchase"`
	Notes    []string       `json:"notes,omitempty"`
	Display  DisplayBlock   `json:"display"`
}

// SaleReport holds the sale side of a Report.
type SaleReport struct {
	Region                string             `json:"region"`
	Locality              string             `json:"locality"`
	Neighborhood          string             `json:"neighborhood"`
	AreaSquareMeters      float64            `json:"areaSquareMeters"`
	PricePerSquareMeter   estimator.Estimate `json:"pricePerSquareMeter"`
	HoldingMonths         *int               `json:"holdingMonths,omitempty"`
	GrossSaleValue        float64            `json:"grossSaleValue"`
	AgentCommissionAmount float64            `json:"agentCommissionAmount"`
	MunicipalGainAmount   float64            `json:"municipalGainAmount"`
	FixedClosingCost      float64            `json:"fixedClosingCost"`
	NetSaleProceeds       float64            `json:"netSaleProceeds"`
}

// PurchaseReport holds the purchase side of a Report.
type PurchaseReport struct {
	Region                     string             `json:"region"`
	Locality                   string             `json:"locality"`
	Neighborhood               string             `json:"neighborhood"`
	PricePerSquareMeter        estimator.Estimate `json:"pricePerSquareMeter"`
	ReinvestmentFraction       float64            `json:"reinvestmentFraction"`
	PurchaseBudget             float64            `json:"purchaseBudget"`
	CashSurplus                float64            `json:"cashSurplus"`
	TransferTaxRate            float64            `json:"transferTaxRate"`
	AcquisitionCostRate        float64            `json:"acquisitionCostRate"`
	MaxAffordablePropertyPrice float64            `json:"maxAffordablePropertyPrice"`
	TransferTaxAmount          float64            `json:"transferTaxAmount"`
	AcquisitionFeeAmount       float64            `json:"acquisitionFeeAmount"`
	AffordableAreaSquareMeters float64            `json:"affordableAreaSquareMeters"`
	TargetPrice                *float64           `json:"targetPrice,omitempty"`
	RequiredReinvestment       *float64           `json:"requiredReinvestment,omitempty"`
}

// DisplayBlock carries the Spanish-formatted strings shown to users.
type DisplayBlock struct {
	GrossSaleValue             string `json:"grossSaleValue"`
	NetSaleProceeds            string `json:"netSaleProceeds"`
	PurchaseBudget             string `json:"purchaseBudget"`
	CashSurplus                string `json:"cashSurplus"`
	MaxAffordablePropertyPrice string `json:"maxAffordablePropertyPrice"`
	TransferTaxAmount          string `json:"transferTaxAmount"`
	AcquisitionFeeAmount       string `json:"acquisitionFeeAmount"`
	TransferTaxRate            string `json:"transferTaxRate"`
	AffordableArea             string `json:"affordableArea"`
}

// NewReport converts an analysis into a Report. Amounts are rounded to cents.
func NewReport(a analysis.Analysis) Report {
	r := a.Result
	report := Report{
		Name: a.Name,
		Sale: SaleReport{
			Region:                a.Sale.Region,
			Locality:              a.Sale.Locality,
			Neighborhood:          a.Sale.Neighborhood,
			AreaSquareMeters:      a.Sale.AreaSquareMeters,
			PricePerSquareMeter:   a.SalePrice,
			GrossSaleValue:        mathutil.Round(r.GrossSaleValue),
			AgentCommissionAmount: mathutil.Round(r.AgentCommissionAmount),
			MunicipalGainAmount:   mathutil.Round(r.MunicipalGainAmount),
			FixedClosingCost:      mathutil.Round(a.Sale.FixedClosingCost),
			NetSaleProceeds:       mathutil.Round(r.NetSaleProceeds),
		},
		Purchase: PurchaseReport{
			Region:                     a.Purchase.Region,
			Locality:                   a.Purchase.Locality,
			Neighborhood:               a.Purchase.Neighborhood,
			PricePerSquareMeter:        a.PurchasePrice,
			ReinvestmentFraction:       a.Purchase.ReinvestmentFraction,
			PurchaseBudget:             mathutil.Round(r.PurchaseBudget),
			CashSurplus:                mathutil.Round(r.CashSurplus),
			TransferTaxRate:            r.TransferTaxRate,
			AcquisitionCostRate:        a.Purchase.FixedAcquisitionCostRate,
			MaxAffordablePropertyPrice: mathutil.Round(r.MaxAffordablePropertyPrice),
			TransferTaxAmount:          mathutil.Round(r.TransferTaxAmount),
			AcquisitionFeeAmount:       mathutil.Round(r.AcquisitionFeeAmount),
			AffordableAreaSquareMeters: mathutil.Round(a.AffordableArea),
			TargetPrice:                a.TargetPrice,
			RequiredReinvestment:       a.RequiredReinvestment,
		},
		Notes: a.Notes,
		Display: DisplayBlock{
			GrossSaleValue:             format.WholeCurrency(r.GrossSaleValue),
			NetSaleProceeds:            format.WholeCurrency(r.NetSaleProceeds),
			PurchaseBudget:             format.WholeCurrency(r.PurchaseBudget),
			CashSurplus:                format.WholeCurrency(r.CashSurplus),
			MaxAffordablePropertyPrice: format.Currency(r.MaxAffordablePropertyPrice),
			TransferTaxAmount:          format.Currency(r.TransferTaxAmount),
			AcquisitionFeeAmount:       format.Currency(r.AcquisitionFeeAmount),
			TransferTaxRate:            format.Percent(r.TransferTaxRate),
			AffordableArea:             format.Area(a.AffordableArea),
		},
	}
	if a.Sale.HoldingMonths >= 0 {
		months := a.Sale.HoldingMonths
		report.Sale.HoldingMonths = &months
	}
	return report
}

// NewReports converts every analysis.
func NewReports(analyses []analysis.Analysis) []Report {
	reports := make([]Report, 0, len(analyses))
	for _, a := range analyses {
		reports = append(reports, NewReport(a))
	}
	return reports
}
