// Package loans provides annuity loan sizing utilities.
//
// Rates follow the initial-annuity convention used by lenders: the yearly
// installment is a fixed percentage of the original principal, made of the
// nominal interest rate plus the initial amortization rate.
package loans

import (
	"math"

	"github.com/iwvelando/household-budget/pkg/constants"
)

// AnnuityRatePct returns the yearly installment as a percentage of principal.
func AnnuityRatePct(interestRatePct, amortizationRatePct float64) float64 {
	return interestRatePct + amortizationRatePct
}

// MonthlyRate calculates the monthly installment for a principal at the given
// annuity rate. Zero principal or a non-positive rate yields no installment.
func MonthlyRate(principal, annuityRatePct float64) float64 {
	if principal <= 0 || annuityRatePct <= 0 {
		return 0
	}
	return principal * annuityRatePct / constants.PercentageMultiplier / constants.MonthsPerYear
}

// PrincipalForRate is the inverse of MonthlyRate: the largest principal a
// monthly installment can carry. A non-positive installment or annuity rate
// supports no loan at all.
func PrincipalForRate(monthlyRate, annuityRatePct float64) float64 {
	if monthlyRate <= 0 || annuityRatePct <= 0 {
		return 0
	}
	return monthlyRate * constants.MonthsPerYear * constants.PercentageMultiplier / annuityRatePct
}

// PayoffMonths calculates how many monthly installments repay a principal
// when the installment is fixed by the initial annuity. Without amortization
// the loan is never repaid and 0 is returned. The result is capped at
// constants.MaxPayoffMonths.
func PayoffMonths(principal, interestRatePct, amortizationRatePct float64) int {
	if principal <= 0 || amortizationRatePct <= 0 || interestRatePct < 0 {
		return 0
	}

	var months float64
	if interestRatePct == 0 {
		months = constants.PercentageMultiplier * constants.MonthsPerYear / amortizationRatePct
	} else {
		// n = ln((i+a)/a) / ln(1+r) with r the monthly interest rate; the
		// principal cancels out because the installment scales with it.
		periodicInterestRate := interestRatePct / (constants.PercentageMultiplier * constants.MonthsPerYear)
		months = math.Log((interestRatePct+amortizationRatePct)/amortizationRatePct) / math.Log1p(periodicInterestRate)
	}

	n := int(math.Ceil(months - 1e-9))
	if n > constants.MaxPayoffMonths {
		return constants.MaxPayoffMonths
	}
	return n
}

// RemainingPrincipal returns the outstanding balance after the given number
// of monthly installments, e.g. at the end of a fixed-rate period.
func RemainingPrincipal(principal, interestRatePct, amortizationRatePct float64, months int) float64 {
	if principal <= 0 {
		return 0
	}
	installment := MonthlyRate(principal, AnnuityRatePct(interestRatePct, amortizationRatePct))
	periodicInterestRate := interestRatePct / (constants.PercentageMultiplier * constants.MonthsPerYear)

	balance := principal
	for i := 0; i < months && balance > 0; i++ {
		interest := balance * periodicInterestRate
		balance -= installment - interest
	}
	if balance < 0 {
		return 0
	}
	return balance
}
