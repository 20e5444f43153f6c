// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/inmoreal/pkg/constants"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected for acquisition and sale dates.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for inmoreal.
type Configuration struct {
	Logging       LoggingConfig       `yaml:"logging,omitempty"`
	Output        OutputConfig        `yaml:"output,omitempty"`
	Estimator     EstimatorConfig     `yaml:"estimator,omitempty"`
	Regions       RegionsConfig       `yaml:"regions,omitempty"`
	Defaults      Defaults            `yaml:"defaults,omitempty"`
	MunicipalGain MunicipalGainConfig `yaml:"municipalGain,omitempty"`
	Scenarios     []Scenario          `yaml:"scenarios"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// EstimatorConfig configures the price-per-square-meter estimator.
type EstimatorConfig struct {
	Provider          string          `yaml:"provider,omitempty"` // gemini, fixed
	APIKey            string          `yaml:"-" mapstructure:"apiKey"`
	Model             string          `yaml:"model,omitempty"`
	Endpoint          string          `yaml:"endpoint,omitempty"`
	Timeout           time.Duration   `yaml:"timeout,omitempty"`
	FallbackPrice     float64         `yaml:"fallbackPrice,omitempty"`
	RegionalFallbacks []RegionalPrice `yaml:"regionalFallbacks,omitempty"`
	CacheTTL          time.Duration   `yaml:"cacheTTL,omitempty" mapstructure:"cacheTTL"`
	RequestsPerSecond float64         `yaml:"requestsPerSecond,omitempty"`
	Burst             int             `yaml:"burst,omitempty"`
}

// RegionalPrice is a fallback price for one region. Region-keyed values are
// lists because viper lower-cases map keys.
type RegionalPrice struct {
	Region string  `yaml:"region"`
	Price  float64 `yaml:"price"`
}

// RegionsConfig locates the transfer-tax table.
type RegionsConfig struct {
	// File replaces the built-in table when set.
	File string `yaml:"file,omitempty"`
	// Rates are layered over the built-in or file table.
	Rates []RegionRate `yaml:"rates,omitempty"`
}

// RegionRate overrides the transfer-tax rate of one region.
type RegionRate struct {
	Region string  `yaml:"region"`
	Rate   float64 `yaml:"rate"`
}

// Defaults apply to every scenario that leaves a value unset.
type Defaults struct {
	AgentCommissionRate *float64 `yaml:"agentCommissionRate,omitempty"`
	FixedClosingCost    *float64 `yaml:"fixedClosingCost,omitempty"`
	MunicipalGainRate   *float64 `yaml:"municipalGainRate,omitempty"`
	AcquisitionCostRate *float64 `yaml:"acquisitionCostRate,omitempty"`
	ReinvestmentPercent *float64 `yaml:"reinvestmentPercent,omitempty"`
}

// MunicipalGainConfig selects when the municipal gain levy is charged.
type MunicipalGainConfig struct {
	Policy string `yaml:"policy,omitempty"` // always, holdingPeriod
	// MinimumHoldingMonths is the holding period the levy waits for. Zero
	// charges any holding period; nil selects the default.
	MinimumHoldingMonths *int `yaml:"minimumHoldingMonths,omitempty"`
}

// Scenario pairs one sale with one purchase.
type Scenario struct {
	Name     string   `yaml:"name"`
	Active   bool     `yaml:"active"`
	Sale     Sale     `yaml:"sale"`
	Purchase Purchase `yaml:"purchase"`
}

// Sale describes the property being sold. Nil pointers fall back to Defaults.
type Sale struct {
	Region              string   `yaml:"region"`
	Locality            string   `yaml:"locality"`
	Neighborhood        string   `yaml:"neighborhood"`
	Area                float64  `yaml:"area"`
	PricePerSquareMeter *float64 `yaml:"pricePerSquareMeter,omitempty"`
	AgentCommissionRate *float64 `yaml:"agentCommissionRate,omitempty"`
	FixedClosingCost    *float64 `yaml:"fixedClosingCost,omitempty"`
	MunicipalGainRate   *float64 `yaml:"municipalGainRate,omitempty"`
	AcquisitionDate     string   `yaml:"acquisitionDate,omitempty"`
	SaleDate            string   `yaml:"saleDate,omitempty"`
}

// Purchase describes the destination purchase.
type Purchase struct {
	Region              string   `yaml:"region"`
	Locality            string   `yaml:"locality"`
	Neighborhood        string   `yaml:"neighborhood"`
	ReinvestmentPercent *float64 `yaml:"reinvestmentPercent,omitempty"`
	AcquisitionCostRate *float64 `yaml:"acquisitionCostRate,omitempty"`
	PricePerSquareMeter *float64 `yaml:"pricePerSquareMeter,omitempty"`
	TargetPrice         *float64 `yaml:"targetPrice,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("estimator.apiKey", "GEMINI_API_KEY")
	_ = v.BindEnv("estimator.model", "GEMINI_MODEL")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills every unset optional value with its built-in default.
func (c *Configuration) ApplyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}

	e := &c.Estimator
	if e.Provider == "" {
		e.Provider = constants.EstimatorProviderGemini
	}
	if e.Model == "" {
		e.Model = constants.DefaultGeminiModel
	}
	if e.Endpoint == "" {
		e.Endpoint = constants.DefaultGeminiEndpoint
	}
	if e.Timeout <= 0 {
		e.Timeout = constants.DefaultEstimatorTimeoutSeconds * time.Second
	}
	if e.FallbackPrice <= 0 {
		e.FallbackPrice = constants.DefaultFallbackPricePerSquareMeter
	}
	if e.CacheTTL <= 0 {
		e.CacheTTL = constants.DefaultEstimatorCacheMinutes * time.Minute
	}
	if e.RequestsPerSecond <= 0 {
		e.RequestsPerSecond = constants.DefaultEstimatorRequestsPerSecond
	}
	if e.Burst <= 0 {
		e.Burst = constants.DefaultEstimatorBurst
	}

	d := &c.Defaults
	d.AgentCommissionRate = orDefault(d.AgentCommissionRate, constants.DefaultAgentCommissionRate)
	d.FixedClosingCost = orDefault(d.FixedClosingCost, constants.DefaultFixedClosingCost)
	d.MunicipalGainRate = orDefault(d.MunicipalGainRate, constants.DefaultMunicipalGainRate)
	d.AcquisitionCostRate = orDefault(d.AcquisitionCostRate, constants.DefaultAcquisitionCostRate)
	d.ReinvestmentPercent = orDefault(d.ReinvestmentPercent, constants.DefaultReinvestmentPercent)

	if c.MunicipalGain.Policy == "" {
		c.MunicipalGain.Policy = "always"
	}
	if c.MunicipalGain.MinimumHoldingMonths == nil {
		c.MunicipalGain.MinimumHoldingMonths = Int(constants.DefaultMinimumHoldingMonths)
	}
}

func orDefault(value *float64, fallback float64) *float64 {
	if value != nil {
		return value
	}
	v := fallback
	return &v
}

// Float returns a pointer to v, for building configurations in code.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
