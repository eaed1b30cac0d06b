package engine

import "github.com/iwvelando/household-budget/pkg/mathutil"

// ComputeRentCredit resolves the rent lines for a usage type. Haircuts are the
// percentage of gross rent a lender recognizes as income.
func ComputeRentCredit(usage UsageType, currentWarmRent float64, hasExistingProperty bool,
	existingRentIncome, existingHaircutPct, plannedNewRentIncome, newHaircutPct float64) RentCredit {
	var credit RentCredit

	switch usage {
	case OwnerOccupied:
		// Moving in ends the old rent; the warm rent only feeds the
		// rent-vs-buy comparison.
	case OwnerOccupiedWithRental:
		credit.NewRentCredit = mathutil.ApplyPercentage(plannedNewRentIncome, newHaircutPct)
	case PureRentalInvestment:
		credit.CurrentRentBurden = currentWarmRent
		credit.NewRentCredit = mathutil.ApplyPercentage(plannedNewRentIncome, newHaircutPct)
	}

	if hasExistingProperty {
		credit.ExistingRentCredit = mathutil.ApplyPercentage(existingRentIncome, existingHaircutPct)
	}
	return credit
}
