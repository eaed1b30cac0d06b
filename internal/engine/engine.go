package engine

import (
	"github.com/iwvelando/household-budget/pkg/constants"
	"github.com/iwvelando/household-budget/pkg/loans"
	"github.com/iwvelando/household-budget/pkg/mathutil"
)

// Line item keys, shared by report printers.
const (
	ItemPrimarySalary      = "primary_salary"
	ItemPartnerSalary      = "partner_salary"
	ItemSideIncome         = "side_income"
	ItemOtherIncome        = "other_income"
	ItemChildBenefit       = "child_benefit"
	ItemExistingRentCredit = "existing_rent_credit"
	ItemNewRentCredit      = "new_rent_credit"

	ItemLivingCost        = "living_cost_stipend"
	ItemOperatingCost     = "operating_cost_stipend"
	ItemMaintenance       = "maintenance_buffer"
	ItemExistingLoan      = "existing_loan_payment"
	ItemMandatorySavings  = "mandatory_savings_payments"
	ItemConsumerLoans     = "consumer_loan_payments"
	ItemCurrentRentBurden = "current_rent_burden"
)

// Compute derives the complete result for a validated input. It never fails:
// a negative disposable amount, a zero loan or an unaffordable target are
// ordinary outcomes.
func Compute(in HouseholdInput) HouseholdResult {
	in = in.Normalize()

	var res HouseholdResult
	res.ChildBenefit = float64(in.NumChildren) * in.ChildBenefitRate
	res.Rent = ComputeRentCredit(in.UsageType, in.CurrentWarmRent, in.HasExistingProperty,
		in.ExistingRentIncome, in.ExistingRentHaircutPct, in.PlannedNewRentIncome, in.NewRentHaircutPct)

	res.Income = []LineItem{
		{Key: ItemPrimarySalary, Label: "Primary salary", Amount: in.PrimarySalary},
		{Key: ItemPartnerSalary, Label: "Partner salary", Amount: in.PartnerSalary},
		{Key: ItemSideIncome, Label: "Side income", Amount: in.SideIncome},
		{Key: ItemOtherIncome, Label: "Other income", Amount: in.OtherIncome},
		{Key: ItemChildBenefit, Label: "Child benefit", Amount: res.ChildBenefit},
		{Key: ItemExistingRentCredit, Label: "Existing rent (recognized)", Amount: res.Rent.ExistingRentCredit},
		{Key: ItemNewRentCredit, Label: "New rent (recognized)", Amount: res.Rent.NewRentCredit},
	}
	res.Expenses = []LineItem{
		{Key: ItemLivingCost, Label: "Living costs", Amount: in.LivingCostStipend.Effective},
		{Key: ItemOperatingCost, Label: "Operating costs", Amount: in.OperatingCostStipend.Effective},
		{Key: ItemMaintenance, Label: "Maintenance buffer", Amount: in.MaintenanceBuffer.Effective},
		{Key: ItemExistingLoan, Label: "Existing loan payment", Amount: in.ExistingLoanPayment},
		{Key: ItemMandatorySavings, Label: "Mandatory savings", Amount: in.MandatorySavingsPayments + in.ExistingSavingsPayment},
		{Key: ItemConsumerLoans, Label: "Consumer loans", Amount: in.ConsumerLoanPayments},
		{Key: ItemCurrentRentBurden, Label: "Current rent", Amount: res.Rent.CurrentRentBurden},
	}

	res.TotalIncome = sum(res.Income)
	res.TotalExpenses = sum(res.Expenses)
	res.DisposableAmount = res.TotalIncome - res.TotalExpenses

	res.AnnuityRatePct = loans.AnnuityRatePct(in.InterestRatePct, in.AmortizationRatePct)
	res.MaxLoanAmount = loans.PrincipalForRate(res.DisposableAmount, res.AnnuityRatePct)
	res.PayoffMonths = loans.PayoffMonths(res.MaxLoanAmount, in.InterestRatePct, in.AmortizationRatePct)
	res.ResidualDebt = loans.RemainingPrincipal(res.MaxLoanAmount, in.InterestRatePct, in.AmortizationRatePct,
		constants.FixedRatePeriodMonths)

	res.TransactionCostPct = in.TransactionCostPct()
	res.MaxPurchasePrice = mathutil.NetOf(res.MaxLoanAmount+in.Equity, res.TransactionCostPct)
	res.TransactionCostAmount = mathutil.ApplyPercentage(res.MaxPurchasePrice, res.TransactionCostPct)

	if in.TargetPurchasePrice > 0 {
		res.Target = evaluateTarget(in, res)
	}

	comparable := in.UsageType != PureRentalInvestment && in.CurrentWarmRent > 0
	housingCosts := in.OperatingCostStipend.Effective + in.MaintenanceBuffer.Effective
	if comparable {
		delta := res.DisposableAmount + housingCosts - in.CurrentWarmRent
		res.RentVsBuyDelta = &delta
	}

	if in.PlannedRate > 0 {
		planned := &PlannedRateResult{
			Rate:      in.PlannedRate,
			Remainder: res.DisposableAmount - in.PlannedRate,
		}
		if comparable {
			delta := in.PlannedRate + housingCosts - in.CurrentWarmRent
			planned.RentVsBuyDelta = &delta
		}
		res.PlannedRate = planned
	}

	return res
}

func evaluateTarget(in HouseholdInput, res HouseholdResult) *TargetResult {
	target := &TargetResult{
		Investment: mathutil.GrossUp(in.TargetPurchasePrice, res.TransactionCostPct) + in.RenovationCost,
	}
	target.LoanAmount = mathutil.NonNegative(target.Investment - in.Equity)
	target.RequiredRate = loans.MonthlyRate(target.LoanAmount, res.AnnuityRatePct)
	target.Shortfall = mathutil.NonNegative(target.RequiredRate - res.DisposableAmount)
	target.IsAffordable = target.Shortfall == 0
	return target
}

func sum(items []LineItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Amount
	}
	return total
}
