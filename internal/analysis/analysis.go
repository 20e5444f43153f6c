// Package analysis evaluates configured sale/purchase scenarios: it resolves
// prices per square meter, runs the calculator and annotates the result.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/inmoreal/internal/calculator"
	"github.com/iwvelando/inmoreal/internal/config"
	"github.com/iwvelando/inmoreal/internal/estimator"
	"github.com/iwvelando/inmoreal/pkg/format"
	"github.com/iwvelando/inmoreal/pkg/mathutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds concurrent scenario evaluations in RunScenarios.
const DefaultParallelism = 4

// Analysis is the evaluated outcome of one scenario.
type Analysis struct {
	Name          string
	Sale          calculator.SaleInput
	Purchase      calculator.PurchaseInput
	SalePrice     estimator.Estimate
	PurchasePrice estimator.Estimate
	Result        calculator.TransactionResult
	// AffordableArea is the destination area MaxAffordablePropertyPrice buys
	// at PurchasePrice. Zero when nothing is affordable.
	AffordableArea float64
	TargetPrice    *float64
	// RequiredReinvestment is the fraction of net proceeds needed to buy
	// TargetPrice. Nil without a target or when the target is out of reach.
	RequiredReinvestment *float64
	Notes                []string
}

// Run evaluates every active scenario in order.
func Run(ctx context.Context, logger *zap.Logger, conf *config.Configuration, est estimator.Estimator, calc *calculator.Calculator) ([]Analysis, error) {
	return RunScenarios(ctx, logger, conf, est, calc, 1)
}

// RunScenarios evaluates active scenarios with up to parallelism goroutines.
// Results keep the configuration order. The first failing scenario cancels
// the rest.
func RunScenarios(ctx context.Context, logger *zap.Logger, conf *config.Configuration, est estimator.Estimator, calc *calculator.Calculator, parallelism int) ([]Analysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	now := time.Now()

	var active []config.Scenario
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug("skipping inactive scenario",
				zap.String("op", "analysis.RunScenarios"),
				zap.String("scenario", scenario.Name),
			)
			continue
		}
		active = append(active, scenario)
	}

	results := make([]Analysis, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, scenario := range active {
		g.Go(func() error {
			a, err := Evaluate(gctx, logger, conf, est, calc, scenario, now)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Evaluate runs a single scenario. now fixes the sale month when the
// scenario has no sale date.
func Evaluate(ctx context.Context, logger *zap.Logger, conf *config.Configuration, est estimator.Estimator, calc *calculator.Calculator, scenario config.Scenario, now time.Time) (Analysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := Analysis{Name: scenario.Name, TargetPrice: scenario.Purchase.TargetPrice}

	// Reject bad input before any price lookup reaches the estimator.
	sale, err := conf.SaleInput(scenario, 0, now)
	if err != nil {
		return Analysis{}, err
	}
	purchase := conf.PurchaseInput(scenario)
	if err := calc.Validate(sale, purchase); err != nil {
		return Analysis{}, err
	}

	a.SalePrice = resolvePrice(ctx, est, scenario.Sale.PricePerSquareMeter, estimator.Query{
		Region:       scenario.Sale.Region,
		Locality:     scenario.Sale.Locality,
		Neighborhood: scenario.Sale.Neighborhood,
		IsSale:       true,
	})
	a.PurchasePrice = resolvePrice(ctx, est, scenario.Purchase.PricePerSquareMeter, estimator.Query{
		Region:       scenario.Purchase.Region,
		Locality:     scenario.Purchase.Locality,
		Neighborhood: scenario.Purchase.Neighborhood,
		IsSale:       false,
	})

	sale.PricePerSquareMeter = a.SalePrice.Value
	a.Sale = sale
	a.Purchase = purchase

	result, err := calc.Run(a.Sale, a.Purchase)
	if err != nil {
		return Analysis{}, err
	}
	a.Result = result

	if result.MaxAffordablePropertyPrice > 0 && a.PurchasePrice.Value > 0 {
		a.AffordableArea = result.MaxAffordablePropertyPrice / a.PurchasePrice.Value
	}

	a.Notes = notes(a, calc.Policy())
	if a.TargetPrice != nil {
		fraction, err := calculator.ReinvestmentForPrice(result.NetSaleProceeds, *a.TargetPrice, result.CombinedRate)
		if err != nil {
			a.Notes = append(a.Notes, fmt.Sprintf("Target price %s is out of reach: %v",
				format.Currency(*a.TargetPrice), err))
		} else {
			a.RequiredReinvestment = &fraction
		}
	}

	logger.Info("scenario evaluated",
		zap.String("op", "analysis.Evaluate"),
		zap.String("scenario", a.Name),
		zap.Float64("net_sale_proceeds", result.NetSaleProceeds),
		zap.Float64("max_affordable_price", result.MaxAffordablePropertyPrice),
		zap.String("sale_price_source", string(a.SalePrice.Source)),
		zap.String("purchase_price_source", string(a.PurchasePrice.Source)),
	)
	return a, nil
}

func resolvePrice(ctx context.Context, est estimator.Estimator, configured *float64, q estimator.Query) estimator.Estimate {
	if configured != nil {
		return estimator.Estimate{Value: *configured, Source: estimator.SourceConfig}
	}
	return est.EstimatePricePerSquareMeter(ctx, q)
}

func notes(a Analysis, policy calculator.GainPolicy) []string {
	var out []string
	if a.SalePrice.IsFallback() {
		out = append(out, fmt.Sprintf("Sale price per m² is a fallback value (%s)", a.SalePrice.Reason))
	}
	if a.PurchasePrice.IsFallback() {
		out = append(out, fmt.Sprintf("Purchase price per m² is a fallback value (%s)", a.PurchasePrice.Reason))
	}
	if mathutil.IsNegative(a.Result.NetSaleProceeds) {
		out = append(out, "Sale costs exceed the sale value; net proceeds are negative")
	}
	if a.Sale.MunicipalGainRate > 0 && !policy.Applies(a.Sale.HoldingMonths) {
		out = append(out, fmt.Sprintf("Municipal gain levy not charged: held %d months, minimum is %d",
			a.Sale.HoldingMonths, policy.MinimumHoldingMonths))
	}
	return out
}
