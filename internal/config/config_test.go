package config

import (
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/inmoreal/internal/calculator"
	"github.com/iwvelando/inmoreal/internal/estimator"
	"github.com/iwvelando/inmoreal/pkg/constants"
	"github.com/iwvelando/inmoreal/pkg/datetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testConfigPath = "../../test/test_config.yaml"

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test config file",
			configPath: testConfigPath,
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, config)
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", conf.Logging.Level)
	assert.Equal(t, constants.OutputFormatPretty, conf.Output.Format)
	assert.Equal(t, constants.EstimatorProviderFixed, conf.Estimator.Provider)
	require.Len(t, conf.Estimator.RegionalFallbacks, 2)
	assert.Equal(t, "Baleares", conf.Estimator.RegionalFallbacks[1].Region)
	require.Len(t, conf.Regions.Rates, 1)
	assert.Equal(t, "Cataluña", conf.Regions.Rates[0].Region)

	require.Len(t, conf.Scenarios, 3)
	first := conf.Scenarios[0]
	assert.Equal(t, "Madrid to Valencia", first.Name)
	assert.True(t, first.Active)
	assert.Equal(t, "Chamberí", first.Sale.Neighborhood)
	require.NotNil(t, first.Sale.PricePerSquareMeter)
	assert.Equal(t, 3000.0, *first.Sale.PricePerSquareMeter)
	assert.Nil(t, first.Purchase.PricePerSquareMeter)
	require.NotNil(t, conf.Scenarios[1].Purchase.TargetPrice)
	assert.Equal(t, 150000.0, *conf.Scenarios[1].Purchase.TargetPrice)
	assert.False(t, conf.Scenarios[2].Active)
}

func TestLoadConfigurationFromReader(t *testing.T) {
	data := `
scenarios:
  - name: minimal
    active: true
    sale:
      region: Madrid
      area: 50
    purchase:
      region: Madrid
`
	conf, err := LoadConfigurationFromReader(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, conf.Scenarios, 1)
	assert.Equal(t, 50.0, conf.Scenarios[0].Sale.Area)

	_, err = LoadConfigurationFromReader(strings.NewReader("scenarios: [unterminated"))
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	conf := &Configuration{}
	conf.ApplyDefaults()

	assert.Equal(t, constants.OutputFormatPretty, conf.Output.Format)
	assert.Equal(t, constants.EstimatorProviderGemini, conf.Estimator.Provider)
	assert.Equal(t, constants.DefaultGeminiModel, conf.Estimator.Model)
	assert.Equal(t, constants.DefaultGeminiEndpoint, conf.Estimator.Endpoint)
	assert.Equal(t, constants.DefaultEstimatorTimeoutSeconds*time.Second, conf.Estimator.Timeout)
	assert.Equal(t, constants.DefaultFallbackPricePerSquareMeter, conf.Estimator.FallbackPrice)
	assert.Equal(t, constants.DefaultEstimatorCacheMinutes*time.Minute, conf.Estimator.CacheTTL)
	assert.Equal(t, constants.DefaultEstimatorBurst, conf.Estimator.Burst)
	assert.Equal(t, constants.DefaultAgentCommissionRate, *conf.Defaults.AgentCommissionRate)
	assert.Equal(t, constants.DefaultFixedClosingCost, *conf.Defaults.FixedClosingCost)
	assert.Equal(t, constants.DefaultMunicipalGainRate, *conf.Defaults.MunicipalGainRate)
	assert.Equal(t, constants.DefaultAcquisitionCostRate, *conf.Defaults.AcquisitionCostRate)
	assert.Equal(t, constants.DefaultReinvestmentPercent, *conf.Defaults.ReinvestmentPercent)
	assert.Equal(t, "always", conf.MunicipalGain.Policy)
	require.NotNil(t, conf.MunicipalGain.MinimumHoldingMonths)
	assert.Equal(t, constants.DefaultMinimumHoldingMonths, *conf.MunicipalGain.MinimumHoldingMonths)

	// Explicit zero survives defaulting.
	conf = &Configuration{
		Defaults:      Defaults{FixedClosingCost: Float(0)},
		MunicipalGain: MunicipalGainConfig{Policy: "holdingPeriod", MinimumHoldingMonths: Int(0)},
	}
	conf.ApplyDefaults()
	assert.Equal(t, 0.0, *conf.Defaults.FixedClosingCost)
	assert.Equal(t, 0, *conf.MunicipalGain.MinimumHoldingMonths)
	policy, err := conf.GainPolicy()
	require.NoError(t, err)
	assert.Equal(t, 0, policy.MinimumHoldingMonths)
	assert.True(t, policy.Applies(1))
	assert.False(t, policy.Applies(0))
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	conf, err := LoadConfigurationFromReader(strings.NewReader("scenarios: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Estimator.APIKey)
}

func TestHoldingMonths(t *testing.T) {
	now, err := datetime.ParseMonth("2025-10")
	require.NoError(t, err)
	tests := []struct {
		name      string
		sale      Sale
		want      int
		wantError bool
	}{
		{name: "no acquisition date", sale: Sale{}, want: -1},
		{name: "explicit dates", sale: Sale{AcquisitionDate: "2019-03", SaleDate: "2025-06"}, want: 75},
		{name: "sale defaults to now", sale: Sale{AcquisitionDate: "2025-01"}, want: 9},
		{name: "sale before acquisition", sale: Sale{AcquisitionDate: "2025-06", SaleDate: "2025-01"}, wantError: true},
		{name: "malformed date", sale: Sale{AcquisitionDate: "June 2020"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scenario{Sale: tt.sale}.HoldingMonths(now)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScenarioInputs(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)
	now := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	sale, err := conf.SaleInput(conf.Scenarios[1], 4500, now)
	require.NoError(t, err)
	assert.Equal(t, calculator.SaleInput{
		Region:              "Cataluña",
		Locality:            "Barcelona",
		Neighborhood:        "Gràcia",
		AreaSquareMeters:    65,
		PricePerSquareMeter: 4500,
		AgentCommissionRate: 0.04,
		FixedClosingCost:    6000,
		MunicipalGainRate:   0.03,
		HoldingMonths:       8,
	}, sale)

	purchase := conf.PurchaseInput(conf.Scenarios[0])
	assert.Equal(t, "Comunidad Valenciana", purchase.Region)
	assert.InDelta(t, 0.8, purchase.ReinvestmentFraction, 1e-12)
	assert.Equal(t, 0.015, purchase.FixedAcquisitionCostRate)

	purchase = conf.PurchaseInput(conf.Scenarios[1])
	assert.InDelta(t, 0.7, purchase.ReinvestmentFraction, 1e-12)
	assert.Equal(t, 0.02, purchase.FixedAcquisitionCostRate)
}

func TestRegionTable(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)

	table, err := conf.RegionTable()
	require.NoError(t, err)
	rate, err := table.Rate("Cataluña")
	require.NoError(t, err)
	assert.Equal(t, 0.11, rate)
	rate, err = table.Rate("Madrid")
	require.NoError(t, err)
	assert.Equal(t, 0.06, rate)

	conf.Regions.Rates = []RegionRate{{Region: "Madrid", Rate: 1.5}}
	_, err = conf.RegionTable()
	assert.Error(t, err)

	conf.Regions = RegionsConfig{File: "missing-regions.yaml"}
	_, err = conf.RegionTable()
	assert.Error(t, err)
}

func TestNewCalculatorUsesPolicy(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)

	calc, err := conf.NewCalculator()
	require.NoError(t, err)
	assert.Equal(t, calculator.GainHoldingPeriod, calc.Policy().Mode)
	assert.Equal(t, 12, calc.Policy().MinimumHoldingMonths)

	conf.MunicipalGain.MinimumHoldingMonths = Int(-1)
	_, err = conf.NewCalculator()
	assert.Error(t, err)

	conf.MunicipalGain.MinimumHoldingMonths = nil
	conf.MunicipalGain.Policy = "sometimes"
	_, err = conf.NewCalculator()
	assert.Error(t, err)
}

func TestNewEstimator(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)

	est, err := conf.NewEstimator(zap.NewNop())
	require.NoError(t, err)
	fixed, ok := est.(estimator.Fixed)
	require.True(t, ok)
	assert.Equal(t, 4200.0, fixed.Fallbacks.For("Madrid"))
	assert.Equal(t, 2500.0, fixed.Fallbacks.For("Galicia"))

	conf.Estimator.Provider = constants.EstimatorProviderGemini
	conf.Estimator.APIKey = ""
	est, err = conf.NewEstimator(nil)
	require.NoError(t, err)
	_, ok = est.(estimator.Fixed)
	assert.True(t, ok, "missing API key falls back to fixed prices")

	conf.Estimator.APIKey = "key"
	est, err = conf.NewEstimator(zap.NewNop())
	require.NoError(t, err)
	_, ok = est.(*estimator.Service)
	assert.True(t, ok)

	conf.Estimator.Provider = "oracle"
	_, err = conf.NewEstimator(zap.NewNop())
	assert.Error(t, err)
}

func TestValidateConfiguration(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)
	assert.Empty(t, conf.ValidateConfiguration())

	conf.Scenarios[0].Purchase.Region = "Atlantis"
	conf.MunicipalGain.Policy = "sometimes"
	warnings := conf.ValidateConfiguration()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "sometimes")
	assert.Contains(t, warnings[1], "Atlantis")
}

func TestValidateConfigurationRates(t *testing.T) {
	conf, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)

	conf.Defaults.MunicipalGainRate = Float(1.2)
	conf.Scenarios[1].Sale.AgentCommissionRate = Float(-0.01)
	warnings := conf.ValidateConfiguration()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "Defaults municipal gain rate must be below 1")
	assert.Contains(t, warnings[1], "Scenario 'Short hold in Barcelona' agent commission rate must not be negative")
}
