// Package constants provides shared constants for the household-budget application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MaxPayoffMonths caps the repayment horizon reported for a loan (100 years)
	MaxPayoffMonths = 1200

	// FixedRatePeriodMonths is the interest fixation period after which the
	// residual debt is reported (10 years)
	FixedRatePeriodMonths = 120
)

// Living-cost stipend defaults
const (
	// DefaultSingleLivingStipend is the base stipend for a single adult household
	DefaultSingleLivingStipend = 1200.0

	// DefaultCoupleLivingStipend is the base stipend for a two adult household
	DefaultCoupleLivingStipend = 1600.0

	// DefaultSecondAdultBase is the first-adult base under the second-adult policy
	DefaultSecondAdultBase = 1000.0

	// DefaultSecondAdultAddition is added under the second-adult policy when a partner earns
	DefaultSecondAdultAddition = 400.0

	// DefaultPerChildStipend is the living-cost addition per child
	DefaultPerChildStipend = 300.0
)

// Income tier thresholds and surcharges for the optional tier policy
var (
	DefaultIncomeTierThresholds = []float64{4000, 6000, 8000}
	DefaultIncomeTierSurcharges = []float64{200, 300, 400}
)

// Housing cost defaults
const (
	// DefaultOperatingRatePerM2 is the operating-cost stipend per square meter
	DefaultOperatingRatePerM2 = 4.0

	// DefaultFallbackAreaM2 is used when no living area is given
	DefaultFallbackAreaM2 = 120.0

	// DefaultMaintenanceBuffer is the flat monthly maintenance reserve
	DefaultMaintenanceBuffer = 250.0

	// DefaultMaintenanceRatePerM2 is the area-scaled maintenance reserve per square meter
	DefaultMaintenanceRatePerM2 = 1.0

	// DefaultMaintenanceMinimum floors the area-scaled maintenance reserve
	DefaultMaintenanceMinimum = 200.0
)

// Income defaults
const (
	// DefaultChildBenefitRate is the monthly child benefit per child
	DefaultChildBenefitRate = 250.0

	// DefaultNewRentHaircutPct is the share of planned rental income a lender recognizes
	DefaultNewRentHaircutPct = 80.0

	// DefaultExistingRentHaircutPct is the share of existing rental income a lender recognizes
	DefaultExistingRentHaircutPct = 75.0
)

// Market defaults
const (
	// DefaultInterestRatePct is the nominal annual interest rate
	DefaultInterestRatePct = 3.8

	// DefaultAmortizationRatePct is the initial annual amortization rate
	DefaultAmortizationRatePct = 2.0

	// DefaultPropertyTransferTaxPct is the property transfer tax
	DefaultPropertyTransferTaxPct = 6.5

	// DefaultNotaryFeePct covers notary and land registry fees
	DefaultNotaryFeePct = 2.0

	// DefaultBrokerFeePct is the buyer's broker commission
	DefaultBrokerFeePct = 3.57
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "HOUSEHOLD_BUDGET_"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for saved records (64 KB)
	DefaultMaxUploadSizeBytes int64 = 64 * 1024

	// DefaultRateLimitRequests is the number of requests a client may issue per window
	DefaultRateLimitRequests = 60

	// DefaultRateLimitWindow is the refill window of the per-client rate limiter
	DefaultRateLimitWindow = "1m"

	// DefaultCacheTTL is how long memoized results stay in redis
	DefaultCacheTTL = "24h"

	// DefaultMemoryCacheEntries bounds the in-process result cache
	DefaultMemoryCacheEntries = 10000

	// CacheKeyPrefix namespaces memoized results
	CacheKeyPrefix = "household-budget:result:"
)

// Locale constants
const (
	// DefaultLocale is the language tag used for currency output
	DefaultLocale = "de"

	// CurrencySymbol is appended to every formatted amount
	CurrencySymbol = "€"
)
