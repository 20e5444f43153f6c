// Package calculator turns a price-per-square-meter estimate into the
// economics of selling one property and buying another: net sale proceeds
// after costs and levies, and the most expensive property the reinvested
// share can buy once transfer tax and acquisition fees are paid on it.
//
// Every function here is pure. A Calculator only holds read-only references
// and may be shared across goroutines.
package calculator

import (
	"math"

	"github.com/iwvelando/inmoreal/internal/regions"
	"github.com/iwvelando/inmoreal/pkg/mathutil"
)

// SaleInput describes the property being sold.
type SaleInput struct {
	Region              string
	Locality            string
	Neighborhood        string
	AreaSquareMeters    float64
	PricePerSquareMeter float64
	AgentCommissionRate float64
	FixedClosingCost    float64
	MunicipalGainRate   float64
	// HoldingMonths is only consulted by GainHoldingPeriod. Negative means
	// unknown.
	HoldingMonths int
}

// PurchaseInput describes the destination purchase. The transfer-tax rate is
// resolved from the region table.
type PurchaseInput struct {
	Region                   string
	Locality                 string
	Neighborhood             string
	FixedAcquisitionCostRate float64
	ReinvestmentFraction     float64
}

// SaleProceeds is the sale side of a TransactionResult.
type SaleProceeds struct {
	GrossSaleValue        float64
	AgentCommissionAmount float64
	MunicipalGainAmount   float64
	NetSaleProceeds       float64
}

// PurchaseCapacity is the purchase side of a TransactionResult.
type PurchaseCapacity struct {
	PurchaseBudget             float64
	CashSurplus                float64
	MaxAffordablePropertyPrice float64
	TransferTaxAmount          float64
	AcquisitionFeeAmount       float64
	TransferTaxRate            float64
	CombinedRate               float64
}

// TransactionResult holds both sides of the computation.
//
// NetSaleProceeds == PurchaseBudget + CashSurplus and
// PurchaseBudget == MaxAffordablePropertyPrice + TransferTaxAmount + AcquisitionFeeAmount.
type TransactionResult struct {
	SaleProceeds
	PurchaseCapacity
}

// Calculator runs the pipeline against a fixed region table and gain policy.
type Calculator struct {
	table  *regions.Table
	policy GainPolicy
}

// New returns a Calculator. A nil table selects regions.Default().
func New(table *regions.Table, policy GainPolicy) *Calculator {
	if table == nil {
		table = regions.Default()
	}
	if policy.Mode == "" {
		policy.Mode = GainAlways
	}
	return &Calculator{table: table, policy: policy}
}

// Run computes a TransactionResult with the default gain policy.
func Run(sale SaleInput, purchase PurchaseInput, table *regions.Table) (TransactionResult, error) {
	return New(table, DefaultGainPolicy()).Run(sale, purchase)
}

// Table returns the region table used for transfer-tax lookups.
func (c *Calculator) Table() *regions.Table {
	return c.table
}

// Policy returns the municipal gain policy.
func (c *Calculator) Policy() GainPolicy {
	return c.policy
}

// Validate checks every input except the sale price per square meter, so a
// transaction can be rejected before its prices are looked up. A non-empty
// origin region must exist in the table.
func (c *Calculator) Validate(sale SaleInput, purchase PurchaseInput) error {
	if sale.Region != "" && !c.table.Has(sale.Region) {
		return &regions.UnknownRegionError{Region: sale.Region}
	}
	if err := validateArea(sale); err != nil {
		return err
	}
	if err := validateSaleCosts(sale); err != nil {
		return err
	}
	if err := validatePurchase(purchase); err != nil {
		return err
	}
	if !c.table.Has(purchase.Region) {
		return &regions.UnknownRegionError{Region: purchase.Region}
	}
	return nil
}

// Run composes SaleProceeds and PurchaseCapacity. A non-empty origin region
// must also exist in the table.
func (c *Calculator) Run(sale SaleInput, purchase PurchaseInput) (TransactionResult, error) {
	if sale.Region != "" && !c.table.Has(sale.Region) {
		return TransactionResult{}, &regions.UnknownRegionError{Region: sale.Region}
	}

	proceeds, err := c.SaleProceeds(sale)
	if err != nil {
		return TransactionResult{}, err
	}

	capacity, err := c.PurchaseCapacity(proceeds.NetSaleProceeds, purchase)
	if err != nil {
		return TransactionResult{}, err
	}

	return TransactionResult{SaleProceeds: proceeds, PurchaseCapacity: capacity}, nil
}

// SaleProceeds computes gross value, deductions and net proceeds. A negative
// net is returned as is and propagates through the purchase side.
func (c *Calculator) SaleProceeds(sale SaleInput) (SaleProceeds, error) {
	if err := validateSale(sale); err != nil {
		return SaleProceeds{}, err
	}

	gross := sale.PricePerSquareMeter * sale.AreaSquareMeters
	commission := gross * sale.AgentCommissionRate

	municipalGain := 0.0
	if c.policy.Applies(sale.HoldingMonths) {
		municipalGain = gross * sale.MunicipalGainRate
	}

	return SaleProceeds{
		GrossSaleValue:        gross,
		AgentCommissionAmount: commission,
		MunicipalGainAmount:   municipalGain,
		NetSaleProceeds:       gross - commission - municipalGain - sale.FixedClosingCost,
	}, nil
}

// PurchaseCapacity splits net proceeds into a purchase budget and surplus,
// then finds the price p with p + p*transferTax + p*acquisitionRate == budget.
func (c *Calculator) PurchaseCapacity(netSaleProceeds float64, purchase PurchaseInput) (PurchaseCapacity, error) {
	if !mathutil.IsFinite(netSaleProceeds) {
		return PurchaseCapacity{}, invalid("net sale proceeds", netSaleProceeds, "must be a finite number")
	}
	if err := validatePurchase(purchase); err != nil {
		return PurchaseCapacity{}, err
	}

	transferTaxRate, err := c.table.Rate(purchase.Region)
	if err != nil {
		return PurchaseCapacity{}, err
	}

	budget := netSaleProceeds * purchase.ReinvestmentFraction
	combined := transferTaxRate + purchase.FixedAcquisitionCostRate
	maxPrice := budget / (1 + combined)

	return PurchaseCapacity{
		PurchaseBudget:             budget,
		CashSurplus:                netSaleProceeds - budget,
		MaxAffordablePropertyPrice: maxPrice,
		TransferTaxAmount:          maxPrice * transferTaxRate,
		AcquisitionFeeAmount:       maxPrice * purchase.FixedAcquisitionCostRate,
		TransferTaxRate:            transferTaxRate,
		CombinedRate:               combined,
	}, nil
}

// ReinvestmentForPrice returns the reinvestment fraction needed to afford
// targetPrice once the combined tax and fee rate is paid on it.
func ReinvestmentForPrice(netSaleProceeds, targetPrice, combinedRate float64) (float64, error) {
	if !mathutil.IsFinite(netSaleProceeds) || netSaleProceeds <= 0 {
		return 0, invalid("net sale proceeds", netSaleProceeds, "must be greater than zero")
	}
	if !mathutil.IsFinite(targetPrice) || targetPrice <= 0 {
		return 0, invalid("target price", targetPrice, "must be greater than zero")
	}
	if !mathutil.IsFinite(combinedRate) || combinedRate < 0 {
		return 0, invalid("combined rate", combinedRate, "must not be negative")
	}

	fraction := targetPrice * (1 + combinedRate) / netSaleProceeds
	if fraction > 1 {
		return fraction, invalid("target price", targetPrice, "exceeds net sale proceeds after taxes and fees")
	}
	return fraction, nil
}

func validateSale(sale SaleInput) error {
	if err := validateArea(sale); err != nil {
		return err
	}
	if !mathutil.IsFinite(sale.PricePerSquareMeter) || sale.PricePerSquareMeter <= 0 {
		return invalid("price per square meter", sale.PricePerSquareMeter, "must be greater than zero")
	}
	return validateSaleCosts(sale)
}

func validateArea(sale SaleInput) error {
	if !mathutil.IsFinite(sale.AreaSquareMeters) || sale.AreaSquareMeters <= 0 {
		return invalid("area", sale.AreaSquareMeters, "must be greater than zero")
	}
	return nil
}

func validateSaleCosts(sale SaleInput) error {
	if err := checkFraction("agent commission rate", sale.AgentCommissionRate, false); err != nil {
		return err
	}
	if err := checkFraction("municipal gain rate", sale.MunicipalGainRate, false); err != nil {
		return err
	}
	if !mathutil.IsFinite(sale.FixedClosingCost) || sale.FixedClosingCost < 0 {
		return invalid("fixed closing cost", sale.FixedClosingCost, "must not be negative")
	}
	return nil
}

func validatePurchase(purchase PurchaseInput) error {
	if err := checkFraction("reinvestment fraction", purchase.ReinvestmentFraction, true); err != nil {
		return err
	}
	return checkFraction("acquisition cost rate", purchase.FixedAcquisitionCostRate, false)
}

func checkFraction(field string, value float64, allowOne bool) error {
	if math.IsNaN(value) || value < 0 {
		return invalid(field, value, "must not be negative")
	}
	if allowOne && value > 1 {
		return invalid(field, value, "must be at most 1")
	}
	if !allowOne && value >= 1 {
		return invalid(field, value, "must be below 1")
	}
	return nil
}
