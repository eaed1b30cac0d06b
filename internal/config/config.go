// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/pkg/constants"
	"github.com/iwvelando/household-budget/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for household-budget.
type Configuration struct {
	Profile    Profile
	Households []Household
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
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
	Locale string `yaml:"locale,omitempty"` // BCP 47 tag for amounts, e.g. de or en
}

// Profile holds the lender's policy: stipend rules and the defaults for any
// household value left unset.
type Profile struct {
	LivingStipendMode   string
	SingleBase          float64
	CoupleBase          float64
	SecondAdultBase     float64
	SecondAdultAddition float64
	PerChild            float64
	IncomeTierSurcharge bool
	IncomeTiers         []IncomeTier

	OperatingRatePerM2 float64
	FallbackAreaM2     float64

	MaintenanceMode      string
	MaintenanceFlat      float64
	MaintenanceRatePerM2 float64
	MaintenanceMinimum   float64

	ChildBenefitRate       float64
	NewRentHaircutPct      float64
	ExistingRentHaircutPct float64
	InterestRatePct        float64
	AmortizationRatePct    float64
	PropertyTransferTaxPct float64
	NotaryFeePct           float64
	BrokerFeePct           float64
}

// IncomeTier is one surcharge step of the living-cost stipend.
type IncomeTier struct {
	Threshold float64
	Surcharge float64
}

// Household is one named calculation. Unset values fall back to the Profile.
type Household struct {
	Name         string
	Active       bool
	engine.Draft `mapstructure:",squash"`
}

// Check extracts the values validation warns about.
func (h Household) Check() validation.HouseholdCheck {
	return validation.HouseholdCheck{
		Name:                   h.Name,
		Active:                 h.Active,
		HouseholdType:          h.HouseholdType,
		UsageType:              h.UsageType,
		PartnerSalary:          h.PartnerSalary,
		CurrentWarmRent:        h.CurrentWarmRent,
		PlannedNewRentIncome:   h.PlannedNewRentIncome,
		HasExistingProperty:    h.HasExistingProperty,
		ExistingRentIncome:     h.ExistingRentIncome,
		NewRentHaircutPct:      h.NewRentHaircutPct,
		ExistingRentHaircutPct: h.ExistingRentHaircutPct,
	}
}

// Default returns a configuration holding only the stock profile.
func Default() *Configuration {
	v := viper.New()
	setDefaults(v)
	var configuration Configuration
	// Decoding plain defaults cannot fail.
	_ = v.Unmarshal(&configuration)
	return &configuration
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(strings.TrimSuffix(constants.EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from an arbitrary
// reader, e.g. an uploaded file.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}

	v := viper.New()
	v.SetConfigType("yml")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile.livingStipendMode", string(engine.LivingStipendByHousehold))
	v.SetDefault("profile.singleBase", constants.DefaultSingleLivingStipend)
	v.SetDefault("profile.coupleBase", constants.DefaultCoupleLivingStipend)
	v.SetDefault("profile.secondAdultBase", constants.DefaultSecondAdultBase)
	v.SetDefault("profile.secondAdultAddition", constants.DefaultSecondAdultAddition)
	v.SetDefault("profile.perChild", constants.DefaultPerChildStipend)
	v.SetDefault("profile.incomeTierSurcharge", false)
	v.SetDefault("profile.operatingRatePerM2", constants.DefaultOperatingRatePerM2)
	v.SetDefault("profile.fallbackAreaM2", constants.DefaultFallbackAreaM2)
	v.SetDefault("profile.maintenanceMode", string(engine.MaintenanceFlat))
	v.SetDefault("profile.maintenanceFlat", constants.DefaultMaintenanceBuffer)
	v.SetDefault("profile.maintenanceRatePerM2", constants.DefaultMaintenanceRatePerM2)
	v.SetDefault("profile.maintenanceMinimum", constants.DefaultMaintenanceMinimum)
	v.SetDefault("profile.childBenefitRate", constants.DefaultChildBenefitRate)
	v.SetDefault("profile.newRentHaircutPct", constants.DefaultNewRentHaircutPct)
	v.SetDefault("profile.existingRentHaircutPct", constants.DefaultExistingRentHaircutPct)
	v.SetDefault("profile.interestRatePct", constants.DefaultInterestRatePct)
	v.SetDefault("profile.amortizationRatePct", constants.DefaultAmortizationRatePct)
	v.SetDefault("profile.propertyTransferTaxPct", constants.DefaultPropertyTransferTaxPct)
	v.SetDefault("profile.notaryFeePct", constants.DefaultNotaryFeePct)
	v.SetDefault("profile.brokerFeePct", constants.DefaultBrokerFeePct)
	v.SetDefault("output.locale", constants.DefaultLocale)
}

// EngineProfile converts the configured profile into the engine's policy.
func (p Profile) EngineProfile() (engine.Profile, error) {
	livingMode := engine.LivingStipendMode(p.LivingStipendMode)
	switch livingMode {
	case "":
		livingMode = engine.LivingStipendByHousehold
	case engine.LivingStipendByHousehold, engine.LivingStipendSecondAdult:
	default:
		return engine.Profile{}, fmt.Errorf("invalid living stipend mode: %s", p.LivingStipendMode)
	}

	maintenanceMode := engine.MaintenanceMode(p.MaintenanceMode)
	switch maintenanceMode {
	case "":
		maintenanceMode = engine.MaintenanceFlat
	case engine.MaintenanceFlat, engine.MaintenanceByArea:
	default:
		return engine.Profile{}, fmt.Errorf("invalid maintenance mode: %s", p.MaintenanceMode)
	}

	var tiers []engine.IncomeTier
	if p.IncomeTierSurcharge {
		tiers = engine.DefaultIncomeTiers()
		if len(p.IncomeTiers) > 0 {
			tiers = make([]engine.IncomeTier, 0, len(p.IncomeTiers))
			for _, tier := range p.IncomeTiers {
				tiers = append(tiers, engine.IncomeTier{Threshold: tier.Threshold, Surcharge: tier.Surcharge})
			}
		}
	}

	return engine.Profile{
		Stipends: engine.StipendPolicy{
			LivingMode:           livingMode,
			SingleBase:           p.SingleBase,
			CoupleBase:           p.CoupleBase,
			SecondAdultBase:      p.SecondAdultBase,
			SecondAdultAddition:  p.SecondAdultAddition,
			PerChild:             p.PerChild,
			IncomeTiers:          tiers,
			OperatingRatePerM2:   p.OperatingRatePerM2,
			FallbackAreaM2:       p.FallbackAreaM2,
			MaintenanceMode:      maintenanceMode,
			MaintenanceFlat:      p.MaintenanceFlat,
			MaintenanceRatePerM2: p.MaintenanceRatePerM2,
			MaintenanceMinimum:   p.MaintenanceMinimum,
		},
		ChildBenefitRate:       p.ChildBenefitRate,
		NewRentHaircutPct:      p.NewRentHaircutPct,
		ExistingRentHaircutPct: p.ExistingRentHaircutPct,
		InterestRatePct:        p.InterestRatePct,
		AmortizationRatePct:    p.AmortizationRatePct,
		PropertyTransferTaxPct: p.PropertyTransferTaxPct,
		NotaryFeePct:           p.NotaryFeePct,
		BrokerFeePct:           p.BrokerFeePct,
	}, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Structural errors surface later from budget.Evaluate.
func (c *Configuration) ValidateConfiguration() []string {
	var checks []validation.HouseholdCheck
	for _, household := range c.Households {
		checks = append(checks, household.Check())
	}

	validator := validation.ConfigValidator{
		Profile: validation.ProfileCheck{
			NewRentHaircutPct:      c.Profile.NewRentHaircutPct,
			ExistingRentHaircutPct: c.Profile.ExistingRentHaircutPct,
			AnnuityRatePct:         c.Profile.InterestRatePct + c.Profile.AmortizationRatePct,
		},
		Households: checks,
	}
	return validator.ValidateAll()
}
