package engine

import "github.com/iwvelando/household-budget/pkg/constants"

// Profile bundles a lender's stipend policy with the defaults used for any
// input a caller leaves unset.
type Profile struct {
	Stipends StipendPolicy

	ChildBenefitRate       float64
	NewRentHaircutPct      float64
	ExistingRentHaircutPct float64
	InterestRatePct        float64
	AmortizationRatePct    float64
	PropertyTransferTaxPct float64
	NotaryFeePct           float64
	BrokerFeePct           float64
}

// DefaultProfile returns the stock lender profile.
func DefaultProfile() Profile {
	return Profile{
		Stipends:               DefaultStipendPolicy(),
		ChildBenefitRate:       constants.DefaultChildBenefitRate,
		NewRentHaircutPct:      constants.DefaultNewRentHaircutPct,
		ExistingRentHaircutPct: constants.DefaultExistingRentHaircutPct,
		InterestRatePct:        constants.DefaultInterestRatePct,
		AmortizationRatePct:    constants.DefaultAmortizationRatePct,
		PropertyTransferTaxPct: constants.DefaultPropertyTransferTaxPct,
		NotaryFeePct:           constants.DefaultNotaryFeePct,
		BrokerFeePct:           constants.DefaultBrokerFeePct,
	}
}

// Suggestions are the profile's default stipends for one household.
type Suggestions struct {
	LivingCostStipend    float64 `json:"living_cost_stipend"`
	OperatingCostStipend float64 `json:"operating_cost_stipend"`
	MaintenanceBuffer    float64 `json:"maintenance_buffer"`
}

// Suggest derives the default stipends for the household described by in.
// Any stipend values already set on in are ignored.
func (p Profile) Suggest(in HouseholdInput) Suggestions {
	in = in.Normalize()
	return Suggestions{
		LivingCostStipend:    p.Stipends.LivingStipend(in.HouseholdType, in.NumChildren, in.PartnerSalary, in.NetIncome()),
		OperatingCostStipend: p.Stipends.OperatingStipend(in.LivingAreaM2),
		MaintenanceBuffer:    p.Stipends.MaintenanceBuffer(in.LivingAreaM2),
	}
}
