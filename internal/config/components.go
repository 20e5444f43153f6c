package config

import (
	"fmt"

	"github.com/iwvelando/inmoreal/internal/calculator"
	"github.com/iwvelando/inmoreal/internal/estimator"
	"github.com/iwvelando/inmoreal/internal/regions"
	"github.com/iwvelando/inmoreal/pkg/configprocessor"
	"github.com/iwvelando/inmoreal/pkg/constants"
	"github.com/iwvelando/inmoreal/pkg/validation"
	"go.uber.org/zap"
)

// RegionTable builds the transfer-tax table: the file table when configured,
// otherwise the built-in one, with inline rates layered on top.
func (c *Configuration) RegionTable() (*regions.Table, error) {
	table := regions.Default()
	if c.Regions.File != "" {
		loaded, err := regions.Load(c.Regions.File)
		if err != nil {
			return nil, err
		}
		table = loaded
	}

	if len(c.Regions.Rates) == 0 {
		return table, nil
	}
	overrides := make(map[string]float64, len(c.Regions.Rates))
	for _, r := range c.Regions.Rates {
		overrides[r.Region] = r.Rate
	}
	merged, err := table.Merge(overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid region rate override: %w", err)
	}
	return merged, nil
}

// GainPolicy returns the configured municipal gain policy.
func (c *Configuration) GainPolicy() (calculator.GainPolicy, error) {
	mode, err := calculator.ParseGainMode(c.MunicipalGain.Policy)
	if err != nil {
		return calculator.GainPolicy{}, err
	}
	minimum := constants.DefaultMinimumHoldingMonths
	if c.MunicipalGain.MinimumHoldingMonths != nil {
		minimum = *c.MunicipalGain.MinimumHoldingMonths
	}
	if minimum < 0 {
		return calculator.GainPolicy{}, fmt.Errorf("minimum holding months must not be negative, got %d", minimum)
	}
	return calculator.GainPolicy{Mode: mode, MinimumHoldingMonths: minimum}, nil
}

// NewCalculator builds a calculator from the region table and gain policy.
func (c *Configuration) NewCalculator() (*calculator.Calculator, error) {
	table, err := c.RegionTable()
	if err != nil {
		return nil, err
	}
	policy, err := c.GainPolicy()
	if err != nil {
		return nil, err
	}
	return calculator.New(table, policy), nil
}

// Fallbacks returns the estimator fallback prices.
func (c *Configuration) Fallbacks() estimator.Fallbacks {
	byRegion := make(map[string]float64, len(c.Estimator.RegionalFallbacks))
	for _, rp := range c.Estimator.RegionalFallbacks {
		byRegion[rp.Region] = rp.Price
	}
	return estimator.Fallbacks{Default: c.Estimator.FallbackPrice, ByRegion: byRegion}
}

// NewEstimator builds the configured price estimator. Without an API key, or
// with the fixed provider, every query answers with the fallback price.
func (c *Configuration) NewEstimator(logger *zap.Logger) (estimator.Estimator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := c.Estimator

	switch e.Provider {
	case constants.EstimatorProviderFixed:
		return estimator.Fixed{Fallbacks: c.Fallbacks()}, nil
	case constants.EstimatorProviderGemini:
	default:
		return nil, fmt.Errorf("unknown estimator provider %q: expected %s or %s",
			e.Provider, constants.EstimatorProviderGemini, constants.EstimatorProviderFixed)
	}

	if e.APIKey == "" {
		logger.Warn("no Gemini API key configured, prices will use fallback values",
			zap.String("op", "config.NewEstimator"),
		)
		return estimator.Fixed{Fallbacks: c.Fallbacks()}, nil
	}

	client := estimator.NewGeminiClient(e.APIKey, e.Model, e.Endpoint, e.Timeout)
	return estimator.NewService(logger, client, estimator.ServiceConfig{
		Timeout:           e.Timeout,
		CacheTTL:          e.CacheTTL,
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
		Fallbacks:         c.Fallbacks(),
	}), nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	knownRegion := func(string) bool { return true }
	table, err := c.RegionTable()
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Region table could not be built: %v", err))
	} else {
		knownRegion = table.Has
	}

	if _, err := c.GainPolicy(); err != nil {
		warnings = append(warnings, err.Error())
	}

	processor := configprocessor.NewProcessor(knownRegion)
	warnings = append(warnings, processor.ValidateConfiguration(c.scenarioInfos())...)
	warnings = append(warnings, c.rateWarnings()...)
	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

func (c *Configuration) rateWarnings() []string {
	var warnings []string
	check := func(scope, name string, value *float64) {
		if value == nil {
			return
		}
		if err := validation.ValidateFraction(name, *value, false); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %s", scope, err))
		}
	}

	check("Defaults", "agent commission rate", c.Defaults.AgentCommissionRate)
	check("Defaults", "municipal gain rate", c.Defaults.MunicipalGainRate)
	check("Defaults", "acquisition cost rate", c.Defaults.AcquisitionCostRate)
	for _, s := range c.Scenarios {
		scope := fmt.Sprintf("Scenario '%s'", s.Name)
		check(scope, "agent commission rate", s.Sale.AgentCommissionRate)
		check(scope, "municipal gain rate", s.Sale.MunicipalGainRate)
		check(scope, "acquisition cost rate", s.Purchase.AcquisitionCostRate)
	}
	return warnings
}
