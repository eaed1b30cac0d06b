// Package validation provides configuration validation utilities.
package validation

import "fmt"

// ConfigValidator collects the values needed to warn about configurations
// that are valid but almost certainly not what the user meant.
type ConfigValidator struct {
	Profile    ProfileCheck
	Households []HouseholdCheck
}

// ProfileCheck holds the profile values that are checked.
type ProfileCheck struct {
	NewRentHaircutPct      float64
	ExistingRentHaircutPct float64
	AnnuityRatePct         float64
}

// HouseholdCheck holds the household values that are checked. Nil haircuts
// mean the profile value applies.
type HouseholdCheck struct {
	Name                   string
	Active                 bool
	HouseholdType          string
	UsageType              string
	PartnerSalary          float64
	CurrentWarmRent        float64
	PlannedNewRentIncome   float64
	HasExistingProperty    bool
	ExistingRentIncome     float64
	NewRentHaircutPct      *float64
	ExistingRentHaircutPct *float64
}

// ValidateHaircut warns when a haircut discards all or more than all of a
// rent income.
func ValidateHaircut(label string, pct float64) string {
	if pct >= 100 {
		return fmt.Sprintf("%s haircut is %.2f%% - the rent income will not be recognized at all", label, pct)
	}
	return ""
}

// ValidateHousehold checks one household for inputs that normalization will
// silently discard.
func ValidateHousehold(h HouseholdCheck) []string {
	var warnings []string
	prefix := fmt.Sprintf("Household '%s'", h.Name)

	if (h.HouseholdType == "" || h.HouseholdType == "single") && h.PartnerSalary > 0 {
		warnings = append(warnings, fmt.Sprintf("%s is single but has a partner salary - it will be ignored", prefix))
	}
	if (h.UsageType == "" || h.UsageType == "owner_occupied") && h.PlannedNewRentIncome > 0 {
		warnings = append(warnings, fmt.Sprintf("%s is owner occupied but has planned rent income - it will be ignored", prefix))
	}
	if !h.HasExistingProperty && h.ExistingRentIncome > 0 {
		warnings = append(warnings, fmt.Sprintf("%s has existing rent income without an existing property - it will be ignored", prefix))
	}
	if h.UsageType == "pure_rental_investment" && h.CurrentWarmRent == 0 {
		warnings = append(warnings, fmt.Sprintf("%s is a pure investment but pays no current rent", prefix))
	}
	if h.NewRentHaircutPct != nil {
		if w := ValidateHaircut(prefix+" new rent", *h.NewRentHaircutPct); w != "" {
			warnings = append(warnings, w)
		}
	}
	if h.ExistingRentHaircutPct != nil {
		if w := ValidateHaircut(prefix+" existing rent", *h.ExistingRentHaircutPct); w != "" {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if w := ValidateHaircut("Profile new rent", cv.Profile.NewRentHaircutPct); w != "" {
		warnings = append(warnings, w)
	}
	if w := ValidateHaircut("Profile existing rent", cv.Profile.ExistingRentHaircutPct); w != "" {
		warnings = append(warnings, w)
	}
	if cv.Profile.AnnuityRatePct <= 0 {
		warnings = append(warnings, "Profile annuity rate is zero - no household can carry a loan unless it sets its own rates")
	}

	active := 0
	for _, household := range cv.Households {
		if !household.Active {
			continue
		}
		active++
		warnings = append(warnings, ValidateHousehold(household)...)
	}
	if active == 0 {
		warnings = append(warnings, "No active households configured")
	}

	return warnings
}
