// Package constants provides shared constants for the inmoreal application.
package constants

// DateTimeLayout is the format expected for acquisition and sale dates in
// config files.
const DateTimeLayout = "2006-01"

// Financial defaults applied when a scenario leaves a value unset.
const (
	// DefaultFallbackPricePerSquareMeter is used whenever the price estimator
	// cannot produce a usable number.
	DefaultFallbackPricePerSquareMeter = 2500.0

	// DefaultAgentCommissionRate is the selling agent's commission.
	DefaultAgentCommissionRate = 0.03

	// DefaultFixedClosingCost covers notary and cancellation fees on a sale.
	DefaultFixedClosingCost = 1500.0

	// DefaultMunicipalGainRate approximates the plusvalía levy.
	DefaultMunicipalGainRate = 0.03

	// DefaultAcquisitionCostRate covers notary, registry and processing on a purchase.
	DefaultAcquisitionCostRate = 0.015

	// DefaultReinvestmentPercent is the share of net proceeds used to buy.
	DefaultReinvestmentPercent = 70.0

	// DefaultMinimumHoldingMonths is the holding period after which the
	// municipal gain levy applies under the holding-period policy.
	DefaultMinimumHoldingMonths = 12

	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultEnvFile is loaded before configuration when present.
	DefaultEnvFile = ".env"
)

// Estimator defaults
const (
	// EstimatorProviderGemini queries the Gemini generateContent API.
	EstimatorProviderGemini = "gemini"

	// EstimatorProviderFixed always returns the fallback price.
	EstimatorProviderFixed = "fixed"

	// DefaultGeminiModel is the model queried when none is configured.
	DefaultGeminiModel = "gemini-pro"

	// DefaultGeminiEndpoint is the Generative Language API base URL.
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultEstimatorTimeoutSeconds bounds a single price query.
	DefaultEstimatorTimeoutSeconds = 20

	// DefaultEstimatorCacheMinutes is how long a parsed estimate is reused.
	DefaultEstimatorCacheMinutes = 60

	// DefaultEstimatorRequestsPerSecond limits outbound model calls.
	DefaultEstimatorRequestsPerSecond = 1.0

	// DefaultEstimatorBurst is the limiter burst for outbound model calls.
	DefaultEstimatorBurst = 2
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultServerRequestsPerSecond is the per-client request rate.
	DefaultServerRequestsPerSecond = 5.0

	// DefaultServerBurst is the per-client request burst.
	DefaultServerBurst = 10
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// RelativeTolerance is the tolerance used for closed-form identity checks.
	RelativeTolerance = 1e-6
)
