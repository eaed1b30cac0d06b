package engine

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors. Field-level failures wrap one of these.
var (
	ErrNegativeValue        = errors.New("value cannot be negative")
	ErrNonFinite            = errors.New("value must be a finite number")
	ErrNegativeChildren     = errors.New("number of children cannot be negative")
	ErrUnknownHouseholdType = errors.New("unknown household type")
	ErrUnknownUsageType     = errors.New("unknown usage type")
)

// Validate checks the structural invariants Compute relies on. All failures
// are reported together.
func (in HouseholdInput) Validate() error {
	var errs []error

	switch in.HouseholdType {
	case Single, Couple:
	default:
		errs = append(errs, fmt.Errorf("household_type: %w: %q", ErrUnknownHouseholdType, in.HouseholdType))
	}
	switch in.UsageType {
	case OwnerOccupied, OwnerOccupiedWithRental, PureRentalInvestment:
	default:
		errs = append(errs, fmt.Errorf("usage_type: %w: %q", ErrUnknownUsageType, in.UsageType))
	}
	if in.NumChildren < 0 {
		errs = append(errs, fmt.Errorf("num_children: %w (got %d)", ErrNegativeChildren, in.NumChildren))
	}

	for _, field := range in.amountFields() {
		switch {
		case math.IsNaN(field.value) || math.IsInf(field.value, 0):
			errs = append(errs, fmt.Errorf("%s: %w (got %v)", field.name, ErrNonFinite, field.value))
		case field.value < 0:
			errs = append(errs, fmt.Errorf("%s: %w (got %.2f)", field.name, ErrNegativeValue, field.value))
		}
	}

	return errors.Join(errs...)
}

// Normalize applies the forcing rules: a single household has no partner
// salary, rental income from the new property exists only when part of it is
// let, and existing-property lines require an existing property.
func (in HouseholdInput) Normalize() HouseholdInput {
	if in.HouseholdType != Couple {
		in.PartnerSalary = 0
	}
	if in.UsageType == OwnerOccupied {
		in.PlannedNewRentIncome = 0
	}
	if !in.HasExistingProperty {
		in.ExistingRentIncome = 0
		in.ExistingLoanPayment = 0
		in.ExistingSavingsPayment = 0
	}
	return in
}

type namedAmount struct {
	name  string
	value float64
}

func (in HouseholdInput) amountFields() []namedAmount {
	return []namedAmount{
		{"living_area_m2", in.LivingAreaM2},
		{"primary_salary", in.PrimarySalary},
		{"partner_salary", in.PartnerSalary},
		{"side_income", in.SideIncome},
		{"other_income", in.OtherIncome},
		{"child_benefit_rate", in.ChildBenefitRate},
		{"existing_rent_income", in.ExistingRentIncome},
		{"existing_loan_payment", in.ExistingLoanPayment},
		{"existing_savings_payment", in.ExistingSavingsPayment},
		{"existing_rent_haircut_pct", in.ExistingRentHaircutPct},
		{"current_warm_rent", in.CurrentWarmRent},
		{"planned_new_rent_income", in.PlannedNewRentIncome},
		{"new_rent_haircut_pct", in.NewRentHaircutPct},
		{"living_cost_stipend", in.LivingCostStipend.Effective},
		{"operating_cost_stipend", in.OperatingCostStipend.Effective},
		{"maintenance_buffer", in.MaintenanceBuffer.Effective},
		{"consumer_loan_payments", in.ConsumerLoanPayments},
		{"mandatory_savings_payments", in.MandatorySavingsPayments},
		{"equity", in.Equity},
		{"interest_rate_pct", in.InterestRatePct},
		{"amortization_rate_pct", in.AmortizationRatePct},
		{"property_transfer_tax_pct", in.PropertyTransferTaxPct},
		{"notary_fee_pct", in.NotaryFeePct},
		{"broker_fee_pct", in.BrokerFeePct},
		{"target_purchase_price", in.TargetPurchasePrice},
		{"renovation_cost", in.RenovationCost},
		{"planned_rate", in.PlannedRate},
	}
}
