package engine

import (
	"github.com/iwvelando/household-budget/pkg/constants"
	"github.com/iwvelando/household-budget/pkg/mathutil"
)

// LivingStipendMode selects how the base living-cost stipend is derived.
type LivingStipendMode string

const (
	// LivingStipendByHousehold uses a fixed base per household type.
	LivingStipendByHousehold LivingStipendMode = "household"
	// LivingStipendSecondAdult starts from a one-adult base and adds a
	// second-adult amount when a partner income is present.
	LivingStipendSecondAdult LivingStipendMode = "second_adult"
)

// MaintenanceMode selects how the default maintenance buffer is derived.
type MaintenanceMode string

const (
	// MaintenanceFlat uses a fixed monthly reserve.
	MaintenanceFlat MaintenanceMode = "flat"
	// MaintenanceByArea scales the reserve with the living area, floored at a
	// minimum.
	MaintenanceByArea MaintenanceMode = "area"
)

// IncomeTier adds Surcharge to the living-cost stipend when net income
// exceeds Threshold. Tiers stack: every exceeded threshold adds its surcharge.
type IncomeTier struct {
	Threshold float64 `json:"threshold"`
	Surcharge float64 `json:"surcharge"`
}

// StipendPolicy holds the lender's rules for the default stipends.
type StipendPolicy struct {
	LivingMode          LivingStipendMode
	SingleBase          float64
	CoupleBase          float64
	SecondAdultBase     float64
	SecondAdultAddition float64
	PerChild            float64
	IncomeTiers         []IncomeTier

	OperatingRatePerM2 float64
	FallbackAreaM2     float64

	MaintenanceMode      MaintenanceMode
	MaintenanceFlat      float64
	MaintenanceRatePerM2 float64
	MaintenanceMinimum   float64
}

// DefaultStipendPolicy returns the household-type policy without income
// tiers and with a flat maintenance buffer.
func DefaultStipendPolicy() StipendPolicy {
	return StipendPolicy{
		LivingMode:           LivingStipendByHousehold,
		SingleBase:           constants.DefaultSingleLivingStipend,
		CoupleBase:           constants.DefaultCoupleLivingStipend,
		SecondAdultBase:      constants.DefaultSecondAdultBase,
		SecondAdultAddition:  constants.DefaultSecondAdultAddition,
		PerChild:             constants.DefaultPerChildStipend,
		OperatingRatePerM2:   constants.DefaultOperatingRatePerM2,
		FallbackAreaM2:       constants.DefaultFallbackAreaM2,
		MaintenanceMode:      MaintenanceFlat,
		MaintenanceFlat:      constants.DefaultMaintenanceBuffer,
		MaintenanceRatePerM2: constants.DefaultMaintenanceRatePerM2,
		MaintenanceMinimum:   constants.DefaultMaintenanceMinimum,
	}
}

// DefaultIncomeTiers returns the stock 4000/6000/8000 tiers.
func DefaultIncomeTiers() []IncomeTier {
	tiers := make([]IncomeTier, len(constants.DefaultIncomeTierThresholds))
	for i, threshold := range constants.DefaultIncomeTierThresholds {
		tiers[i] = IncomeTier{Threshold: threshold, Surcharge: constants.DefaultIncomeTierSurcharges[i]}
	}
	return tiers
}

// LivingStipend computes the suggested living-cost stipend. partnerSalary is
// only consulted by the second-adult policy; totalNetIncome only by income
// tiers.
func (p StipendPolicy) LivingStipend(householdType HouseholdType, numChildren int, partnerSalary, totalNetIncome float64) float64 {
	var stipend float64
	switch p.LivingMode {
	case LivingStipendSecondAdult:
		stipend = p.SecondAdultBase
		if partnerSalary > 0 {
			stipend += p.SecondAdultAddition
		}
	default:
		stipend = p.SingleBase
		if householdType == Couple {
			stipend = p.CoupleBase
		}
	}

	if numChildren > 0 {
		stipend += p.PerChild * float64(numChildren)
	}

	for _, tier := range p.IncomeTiers {
		if totalNetIncome > tier.Threshold {
			stipend += tier.Surcharge
		}
	}
	return stipend
}

// EffectiveArea falls back to the policy's default area when no living area is
// given.
func (p StipendPolicy) EffectiveArea(livingAreaM2 float64) float64 {
	if livingAreaM2 > 0 {
		return livingAreaM2
	}
	return p.FallbackAreaM2
}

// OperatingStipend computes the suggested operating-cost stipend (heating,
// power, water, property tax, insurance).
func (p StipendPolicy) OperatingStipend(livingAreaM2 float64) float64 {
	return p.EffectiveArea(livingAreaM2) * p.OperatingRatePerM2
}

// MaintenanceBuffer computes the suggested maintenance reserve.
func (p StipendPolicy) MaintenanceBuffer(livingAreaM2 float64) float64 {
	if p.MaintenanceMode == MaintenanceByArea {
		return mathutil.Max(p.EffectiveArea(livingAreaM2)*p.MaintenanceRatePerM2, p.MaintenanceMinimum)
	}
	return p.MaintenanceFlat
}

// DefaultLivingStipend is LivingStipend under DefaultStipendPolicy.
func DefaultLivingStipend(householdType HouseholdType, numChildren int) float64 {
	return DefaultStipendPolicy().LivingStipend(householdType, numChildren, 0, 0)
}

// DefaultOperatingStipend computes area × rate with the 120 m² fallback.
func DefaultOperatingStipend(livingAreaM2, ratePerM2 float64) float64 {
	p := DefaultStipendPolicy()
	p.OperatingRatePerM2 = ratePerM2
	return p.OperatingStipend(livingAreaM2)
}

// DefaultMaintenanceBuffer returns the flat reserve, or the area-scaled one
// floored at its minimum when areaScaled is set.
func DefaultMaintenanceBuffer(livingAreaM2 float64, areaScaled bool) float64 {
	p := DefaultStipendPolicy()
	if areaScaled {
		p.MaintenanceMode = MaintenanceByArea
	}
	return p.MaintenanceBuffer(livingAreaM2)
}
